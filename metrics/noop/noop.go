// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package noop

import (
	"fmt"
)

// Sink describes a no-op sink
type Sink struct {
}

// New ...
func New() *Sink {
	return &Sink{}
}

// EventWithTags creates a new event with the given title, text and tags and send it
func (n *Sink) EventWithTags(title, text string, tags []string) {
	fmt.Printf("NOOP: Event %s\n", title)
}

// MetricRound increments the rounds metric
func (n *Sink) MetricRound(tags []string) {
	fmt.Println("NOOP: MetricRound +1")
}

// MetricScenarioExecuted increments the scenarios.executed metric
func (n *Sink) MetricScenarioExecuted(succeed bool, tags []string) {
	fmt.Printf("NOOP: MetricScenarioExecuted %v\n", succeed)
}

// MetricActionApplied increments the actions.applied metric
func (n *Sink) MetricActionApplied(succeed bool, tags []string) {
	fmt.Printf("NOOP: MetricActionApplied %v\n", succeed)
}
