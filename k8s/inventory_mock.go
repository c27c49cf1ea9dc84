// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package k8s

import (
	"context"

	"github.com/stretchr/testify/mock"
	corev1 "k8s.io/api/core/v1"
)

// PodInventoryMock is a mock implementation of the PodInventory interface
type PodInventoryMock struct {
	mock.Mock
}

//nolint:golint
func (p *PodInventoryMock) PodsInNamespace(ctx context.Context, namespace string) ([]corev1.Pod, error) {
	args := p.Called(ctx, namespace)

	return args.Get(0).([]corev1.Pod), args.Error(1)
}

//nolint:golint
func (p *PodInventoryMock) PodsForDeployment(ctx context.Context, name, namespace string) ([]corev1.Pod, error) {
	args := p.Called(ctx, name, namespace)

	return args.Get(0).([]corev1.Pod), args.Error(1)
}

//nolint:golint
func (p *PodInventoryMock) PodsBySelector(ctx context.Context, selector, namespace string) ([]corev1.Pod, error) {
	args := p.Called(ctx, selector, namespace)

	return args.Get(0).([]corev1.Pod), args.Error(1)
}

//nolint:golint
func (p *PodInventoryMock) KillPod(ctx context.Context, pod corev1.Pod, force bool) error {
	args := p.Called(ctx, pod, force)

	return args.Error(0)
}
