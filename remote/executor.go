// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package remote runs shell commands on cluster machines over SSH. A failure
// on one machine is captured in that machine's result and never aborts the
// rest of the batch.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/DataDog/chaos-seal/node"
)

const (
	defaultSSHPort     = "22"
	defaultDialTimeout = 10 * time.Second
)

// Result is the outcome of one command on one machine. A connection or
// execution failure yields return code 1 and an error description instead of
// the remote streams.
type Result struct {
	ReturnCode int
	Stdout     string
	Stderr     string
	Error      string
}

// Executor runs a shell command on a set of target machines; the returned
// mapping is keyed by node IP and is total over the requested targets.
type Executor interface {
	Execute(ctx context.Context, cmd string, nodes []*node.Node) map[string]Result
}

// SSHExecutorConfig carries the per-controller SSH settings; per-node
// credentials come from the node snapshot itself.
type SSHExecutorConfig struct {
	// PrivateKeyFile is the key used for nodes carrying no password
	PrivateKeyFile string
	// AllowMissingHostKeys accepts unknown host keys instead of failing closed
	AllowMissingHostKeys bool
	// KnownHostsFile defaults to ~/.ssh/known_hosts
	KnownHostsFile string
	// DialTimeout bounds connection establishment per node
	DialTimeout time.Duration
	// DryRun logs commands without connecting to any machine
	DryRun bool
}

// SSHExecutor is the SSH-backed Executor implementation
type SSHExecutor struct {
	config SSHExecutorConfig
	log    *zap.SugaredLogger
}

// NewSSHExecutor creates an SSH executor with the given settings
func NewSSHExecutor(config SSHExecutorConfig, log *zap.SugaredLogger) *SSHExecutor {
	if config.DialTimeout == 0 {
		config.DialTimeout = defaultDialTimeout
	}

	if config.KnownHostsFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			config.KnownHostsFile = filepath.Join(home, ".ssh", "known_hosts")
		}
	}

	return &SSHExecutor{
		config: config,
		log:    log,
	}
}

// Execute runs cmd on every given node, sequentially, and returns one result
// per node keyed by its IP. An empty target list is a legal no-op.
func (e *SSHExecutor) Execute(ctx context.Context, cmd string, nodes []*node.Node) map[string]Result {
	results := make(map[string]Result, len(nodes))
	wrapped := shellCommand(cmd)

	for _, n := range nodes {
		e.log.Infow("executing remote command", "cmd", wrapped, "node", n.String())

		if e.config.DryRun {
			e.log.Infow("dry run mode on, skipping command execution", "node", n.String())

			results[n.IP] = Result{}

			continue
		}

		results[n.IP] = e.executeOne(ctx, wrapped, n)
	}

	return results
}

func (e *SSHExecutor) executeOne(ctx context.Context, cmd string, n *node.Node) Result {
	config, err := e.clientConfig(n)
	if err != nil {
		return Result{ReturnCode: 1, Error: err.Error()}
	}

	addr := net.JoinHostPort(n.IP, defaultSSHPort)

	dialer := net.Dialer{Timeout: e.config.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{ReturnCode: 1, Error: fmt.Sprintf("error connecting to %s: %v", addr, err)}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()

		return Result{ReturnCode: 1, Error: fmt.Sprintf("error establishing SSH connection to %s: %v", addr, err)}
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return Result{ReturnCode: 1, Error: fmt.Sprintf("error opening SSH session on %s: %v", addr, err)}
	}

	defer session.Close()

	var stdout, stderr bytes.Buffer

	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(cmd); err != nil {
		var exitErr *ssh.ExitError

		// a non-zero exit is a regular outcome, not an execution failure
		if errors.As(err, &exitErr) {
			return Result{
				ReturnCode: exitErr.ExitStatus(),
				Stdout:     stdout.String(),
				Stderr:     stderr.String(),
			}
		}

		return Result{ReturnCode: 1, Error: fmt.Sprintf("error running command on %s: %v", addr, err)}
	}

	return Result{
		ReturnCode: 0,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}
}

// clientConfig builds the SSH client configuration for one node, picking
// password auth when the node carries a password and key auth otherwise
func (e *SSHExecutor) clientConfig(n *node.Node) (*ssh.ClientConfig, error) {
	hostKeyCallback, err := e.hostKeyCallback()
	if err != nil {
		return nil, fmt.Errorf("error building host key callback: %w", err)
	}

	var auth ssh.AuthMethod

	if n.SSHPass != "" {
		auth = ssh.Password(n.SSHPass)
	} else {
		key, err := os.ReadFile(e.config.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("error reading private key file: %w", err)
		}

		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("error parsing private key: %w", err)
		}

		auth = ssh.PublicKeys(signer)
	}

	return &ssh.ClientConfig{
		User:            n.SSHUser,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeyCallback,
		Timeout:         e.config.DialTimeout,
	}, nil
}

// hostKeyCallback either accepts unknown host keys or fails closed against
// the known hosts file
func (e *SSHExecutor) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if e.config.AllowMissingHostKeys {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec
	}

	return knownhosts.New(e.config.KnownHostsFile)
}

// shellCommand wraps cmd so it always runs under sh, preserving pipelines,
// redirections and globbing regardless of the target account's login shell
func shellCommand(cmd string) string {
	return "sh -c " + shellQuote(cmd)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
