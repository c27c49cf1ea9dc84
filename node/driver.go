// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package node

import (
	"context"

	"go.uber.org/zap"
)

// Driver starts and stops cluster machines through the underlying
// infrastructure provider
type Driver interface {
	Start(ctx context.Context, n *Node) error
	Stop(ctx context.Context, n *Node, force bool) error
}

// NoopDriver logs the lifecycle calls it receives and flips the node state
// accordingly without touching any infrastructure. It backs dry-run mode.
type NoopDriver struct {
	log *zap.SugaredLogger
}

// NewNoopDriver creates a no-op infrastructure driver
func NewNoopDriver(log *zap.SugaredLogger) *NoopDriver {
	return &NoopDriver{log: log}
}

// Start marks the node as up
func (d *NoopDriver) Start(ctx context.Context, n *Node) error {
	d.log.Infow("NOOP: starting node", "node", n.String())
	n.State = StateUp

	return nil
}

// Stop marks the node as down
func (d *NoopDriver) Stop(ctx context.Context, n *Node, force bool) error {
	d.log.Infow("NOOP: stopping node", "node", n.String(), "force", force)
	n.State = StateDown

	return nil
}
