// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package scenario

import (
	"math/rand"
	"time"

	"github.com/DataDog/chaos-seal/policy"
)

// applyFilters threads the candidate set through the filter chain in
// declaration order. Each filter only ever sees what the previous one passed;
// an empty set short-circuits the remaining filters.
func applyFilters[T Target](filters []policy.Filter, targets []T, now time.Time, rng *rand.Rand) []T {
	for _, f := range filters {
		if len(targets) == 0 {
			return targets
		}

		targets = applyFilter(f, targets, now, rng)
	}

	return targets
}

func applyFilter[T Target](f policy.Filter, targets []T, now time.Time, rng *rand.Rand) []T {
	switch {
	case f.Property != nil:
		kept := make([]T, 0, len(targets))

		for _, t := range targets {
			if v, ok := t.TargetProperty(f.Property.Name); ok && v == f.Property.Value {
				kept = append(kept, t)
			}
		}

		return kept
	case f.DayTime != nil:
		// whole-batch temporal gate, tests the evaluation instant and not
		// per-candidate data
		if f.DayTime.Matches(now) {
			return targets
		}

		return nil
	case f.RandomSample != nil:
		size := f.RandomSample.SampleSize(len(targets))

		sampled := make([]T, len(targets))
		copy(sampled, targets)
		rng.Shuffle(len(sampled), func(i, j int) {
			sampled[i], sampled[j] = sampled[j], sampled[i]
		})

		return sampled[:size]
	case f.Probability != nil:
		// a single draw for the whole batch, not one per candidate
		if rng.Float64() < *f.Probability.ProbabilityPassAll {
			return targets
		}

		return nil
	}

	return targets
}
