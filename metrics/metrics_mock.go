// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package metrics

import (
	"github.com/stretchr/testify/mock"
)

// SinkMock is a mock implementation of the Sink interface
type SinkMock struct {
	mock.Mock
}

//nolint:golint
func (s *SinkMock) EventWithTags(title, text string, tags []string) {
	s.Called(title, text, tags)
}

//nolint:golint
func (s *SinkMock) MetricRound(tags []string) {
	s.Called(tags)
}

//nolint:golint
func (s *SinkMock) MetricScenarioExecuted(succeed bool, tags []string) {
	s.Called(succeed, tags)
}

//nolint:golint
func (s *SinkMock) MetricActionApplied(succeed bool, tags []string) {
	s.Called(succeed, tags)
}
