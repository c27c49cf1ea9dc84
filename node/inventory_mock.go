// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package node

import (
	"github.com/stretchr/testify/mock"
)

// InventoryMock is a mock implementation of the Inventory interface
type InventoryMock struct {
	mock.Mock
}

//nolint:golint
func (i *InventoryMock) Nodes() []*Node {
	args := i.Called()

	return args.Get(0).([]*Node)
}

//nolint:golint
func (i *InventoryMock) Sync() error {
	args := i.Called()

	return args.Error(0)
}
