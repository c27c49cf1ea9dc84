// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/DataDog/chaos-seal/config"
	"github.com/DataDog/chaos-seal/k8s"
	"github.com/DataDog/chaos-seal/log"
	"github.com/DataDog/chaos-seal/metrics"
	"github.com/DataDog/chaos-seal/node"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/remote"
	"github.com/DataDog/chaos-seal/scenario"
)

func main() {
	logger, err := log.NewZapLogger()
	if err != nil {
		os.Exit(1)
	}

	cfg, err := config.New(logger, os.Args[1:])
	if err != nil {
		logger.Fatalw("unable to create a valid configuration", "error", err)
	}

	// a policy failing validation is fatal, no scenario runs on a document we
	// do not fully understand
	pol, err := policy.LoadFile(cfg.Controller.PolicyFile)
	if err != nil {
		logger.Fatalw("unable to load the policy document", "error", err)
	}

	inventory, err := node.NewStaticInventory(cfg.Controller.InventoryFile, cfg.SSH.User, logger)
	if err != nil {
		logger.Fatalw("unable to load the node inventory", "error", err)
	}

	var pods k8s.PodInventory

	if len(pol.PodScenarios) > 0 {
		client, err := k8s.NewClient(cfg.Controller.Kubeconfig)
		if err != nil {
			logger.Fatalw("unable to create the Kubernetes client", "error", err)
		}

		pods = k8s.NewInventory(client, cfg.Controller.DryRun, logger)
	}

	sink, err := metrics.GetSink(cfg.Controller.MetricsSink)
	if err != nil {
		logger.Fatalw("unable to create the metrics sink", "error", err)
	}

	executor := remote.NewSSHExecutor(remote.SSHExecutorConfig{
		PrivateKeyFile:       cfg.SSH.PrivateKeyFile,
		AllowMissingHostKeys: cfg.SSH.AllowMissingHostKeys,
		KnownHostsFile:       cfg.SSH.KnownHostsFile,
		DryRun:               cfg.Controller.DryRun,
	}, logger)

	driver := node.NewNoopDriver(logger)

	var loops *int

	if cfg.Controller.Loops > 0 {
		loops = &cfg.Controller.Loops
	}

	ctx, stop := signal.NotifyContext(log.WithLogger(context.Background(), logger), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := scenario.NewRunner(pol, inventory, pods, driver, executor, sink, logger)

	// a canceled context is the regular shutdown path, not a failure
	if _, _, err := runner.Run(ctx, loops); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalw("error running the policy", "error", err)
	}

	logger.Infow("shutting down")
}
