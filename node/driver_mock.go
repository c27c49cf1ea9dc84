// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package node

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// DriverMock is a mock implementation of the Driver interface
type DriverMock struct {
	mock.Mock
}

//nolint:golint
func (d *DriverMock) Start(ctx context.Context, n *Node) error {
	args := d.Called(ctx, n)

	return args.Error(0)
}

//nolint:golint
func (d *DriverMock) Stop(ctx context.Context, n *Node, force bool) error {
	args := d.Called(ctx, n, force)

	return args.Error(0)
}
