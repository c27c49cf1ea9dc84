// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package remote

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/DataDog/chaos-seal/node"
)

// ExecutorMock is a mock implementation of the Executor interface
type ExecutorMock struct {
	mock.Mock
}

//nolint:golint
func (e *ExecutorMock) Execute(ctx context.Context, cmd string, nodes []*node.Node) map[string]Result {
	args := e.Called(ctx, cmd, nodes)

	return args.Get(0).(map[string]Result)
}
