// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package config

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type config struct {
	Controller controllerConfig `json:"controller" yaml:"controller"`
	SSH        sshConfig        `json:"ssh" yaml:"ssh"`
}

type controllerConfig struct {
	PolicyFile    string `json:"policyFile" yaml:"policyFile"`
	InventoryFile string `json:"inventoryFile" yaml:"inventoryFile"`
	Kubeconfig    string `json:"kubeconfig" yaml:"kubeconfig"`
	MetricsSink   string `json:"metricsSink" yaml:"metricsSink"`
	Loops         int    `json:"loops" yaml:"loops"`
	DryRun        bool   `json:"dryRun" yaml:"dryRun"`
}

type sshConfig struct {
	User                 string `json:"user" yaml:"user"`
	PrivateKeyFile       string `json:"privateKeyFile" yaml:"privateKeyFile"`
	AllowMissingHostKeys bool   `json:"allowMissingHostKeys" yaml:"allowMissingHostKeys"`
	KnownHostsFile       string `json:"knownHostsFile" yaml:"knownHostsFile"`
}

func New(logger *zap.SugaredLogger, osArgs []string) (config, error) {
	var (
		configPath string
		cfg        config
	)

	preConfigFS := pflag.NewFlagSet("pre-config", pflag.ContinueOnError)
	mainFS := pflag.NewFlagSet("main-config", pflag.ContinueOnError)

	preConfigFS.ParseErrorsWhitelist.UnknownFlags = true
	preConfigFS.StringVar(&configPath, "config", "", "Configuration file path")
	// we redefine configuration flag into main flag to avoid removing it manually from provided args
	// we also define it to avoid activating "UnknownFlags" for main flags so we'll return an error in case a flag is unknown
	mainFS.StringVar(&configPath, "config", "", "Configuration file path")

	mainFS.StringVar(&cfg.Controller.PolicyFile, "policy", "", "Path of the policy document declaring the chaos scenarios to run")

	if err := viper.BindPFlag("controller.policyFile", mainFS.Lookup("policy")); err != nil {
		return cfg, err
	}

	mainFS.StringVar(&cfg.Controller.InventoryFile, "inventory", "", "Path of the inventory file listing the cluster machines")

	if err := viper.BindPFlag("controller.inventoryFile", mainFS.Lookup("inventory")); err != nil {
		return cfg, err
	}

	mainFS.StringVar(&cfg.Controller.Kubeconfig, "kubeconfig", "", "Path of the kubeconfig file used to reach the cluster (defaults to the in-cluster configuration)")

	if err := viper.BindPFlag("controller.kubeconfig", mainFS.Lookup("kubeconfig")); err != nil {
		return cfg, err
	}

	mainFS.StringVar(&cfg.Controller.MetricsSink, "metrics-sink", "noop", "metrics sink (datadog, or noop)")

	if err := viper.BindPFlag("controller.metricsSink", mainFS.Lookup("metrics-sink")); err != nil {
		return cfg, err
	}

	mainFS.IntVar(&cfg.Controller.Loops, "loops", 0, "Number of rounds to run before exiting, 0 runs forever")

	if err := viper.BindPFlag("controller.loops", mainFS.Lookup("loops")); err != nil {
		return cfg, err
	}

	mainFS.BoolVar(&cfg.Controller.DryRun, "dry-run", false, "Enable dry-run mode, actions are logged but not applied")

	if err := viper.BindPFlag("controller.dryRun", mainFS.Lookup("dry-run")); err != nil {
		return cfg, err
	}

	mainFS.StringVar(&cfg.SSH.User, "ssh-user", "cloud-user", "Default user for SSH connections to nodes missing an sshuser attribute")

	if err := viper.BindPFlag("ssh.user", mainFS.Lookup("ssh-user")); err != nil {
		return cfg, err
	}

	mainFS.StringVar(&cfg.SSH.PrivateKeyFile, "ssh-private-key-file", "", "Path of the private key used for nodes carrying no password")

	if err := viper.BindPFlag("ssh.privateKeyFile", mainFS.Lookup("ssh-private-key-file")); err != nil {
		return cfg, err
	}

	mainFS.BoolVar(&cfg.SSH.AllowMissingHostKeys, "ssh-allow-missing-host-keys", false, "Accept unknown host keys instead of failing closed")

	if err := viper.BindPFlag("ssh.allowMissingHostKeys", mainFS.Lookup("ssh-allow-missing-host-keys")); err != nil {
		return cfg, err
	}

	mainFS.StringVar(&cfg.SSH.KnownHostsFile, "ssh-known-hosts-file", "", "Path of the known hosts file checked against when unknown host keys are not allowed (defaults to ~/.ssh/known_hosts)")

	if err := viper.BindPFlag("ssh.knownHostsFile", mainFS.Lookup("ssh-known-hosts-file")); err != nil {
		return cfg, err
	}

	if err := preConfigFS.Parse(osArgs); err != nil {
		return cfg, fmt.Errorf("unable to retrieve configuration parse from provided flag: %w", err)
	}

	// load configuration file if present first and add values to cfg struct
	if configPath != "" {
		logger.Infow("loading configuration file", "config", configPath)

		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("error loading configuration file: %w", err)
		}

		if err := viper.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("error unmarshaling configuration: %w", err)
		}

		viper.WatchConfig()
		viper.OnConfigChange(func(in fsnotify.Event) {
			logger.Info("configuration has changed, restarting")
			os.Exit(0)
		})
	}

	// now that configuration file has been loaded, parse all remaining flags
	if err := mainFS.Parse(osArgs); err != nil {
		return cfg, fmt.Errorf("unable to parse main flags: %w", err)
	}

	if cfg.Controller.PolicyFile == "" {
		return cfg, fmt.Errorf("a policy file is required, use the --policy flag or the controller.policyFile configuration key")
	}

	if cfg.Controller.Loops < 0 {
		return cfg, fmt.Errorf("loops must not be negative")
	}

	return cfg, nil
}
