// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package scenario turns declarative policy scenarios into concrete effects
// on concrete targets: it resolves match clauses against the live inventory,
// threads the candidates through the filter chain and applies the action
// clauses. It also owns the scheduling loop driving all scenarios round after
// round.
package scenario

import (
	"context"
	"time"
)

// Target is anything a scenario can operate on: a cluster machine or a
// workload pod
type Target interface {
	// TargetID returns the identity used for candidate de-duplication
	TargetID() string
	// TargetProperty returns the named attribute, or false for an attribute
	// the target kind does not carry
	TargetProperty(name string) (string, bool)
}

// Result is the per-target outcome of one applied action
type Result struct {
	Target     string
	Action     string
	ReturnCode int
	Stdout     string
	Stderr     string
	Error      string
}

// dedupe removes duplicate target identities, preserving first-seen order
func dedupe[T Target](targets []T) []T {
	seen := map[string]struct{}{}
	out := make([]T, 0, len(targets))

	for _, t := range targets {
		if _, ok := seen[t.TargetID()]; ok {
			continue
		}

		seen[t.TargetID()] = struct{}{}
		out = append(out, t)
	}

	return out
}

// waitFor blocks the whole controller on purpose: a wait action delays the
// remaining actions of its scenario and every scenario scheduled after it
func waitFor(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
