// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package scenario

import (
	"math/rand"
	"time"
)

// options carries the injectable randomness and clock so filter and scheduler
// behavior can be pinned down in tests
type options struct {
	now func() time.Time
	rng *rand.Rand
}

// Option customizes a scenario engine or runner
type Option func(*options)

// WithClock overrides the wall clock consulted by dayTime filters
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithRand overrides the randomness source used by filters, kill actions and
// the inter-round delay
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

func newOptions(opts []Option) options {
	o := options{
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
