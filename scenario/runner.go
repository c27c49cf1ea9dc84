// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/k8s"
	"github.com/DataDog/chaos-seal/metrics"
	"github.com/DataDog/chaos-seal/node"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/remote"
)

const inventorySyncAttempts = 3

// Runner owns the forever loop driving a policy: it builds the scenario
// engines once, executes every scenario per round, sleeps a randomized delay
// and refreshes the inventory before the next round.
type Runner struct {
	policy    *policy.Policy
	inventory node.Inventory
	pods      k8s.PodInventory
	driver    node.Driver
	executor  remote.Executor
	sink      metrics.Sink
	log       *zap.SugaredLogger
	opts      []Option
	options   options
}

// NewRunner wires a validated policy to its collaborators
func NewRunner(pol *policy.Policy, inventory node.Inventory, pods k8s.PodInventory, driver node.Driver, executor remote.Executor, sink metrics.Sink, log *zap.SugaredLogger, opts ...Option) *Runner {
	return &Runner{
		policy:    pol,
		inventory: inventory,
		pods:      pods,
		driver:    driver,
		executor:  executor,
		sink:      sink,
		log:       log,
		opts:      opts,
		options:   newOptions(opts),
	}
}

// Run executes rounds until loops is exhausted, or forever when loops is nil.
// The context cancels the loop between suspension points. The built engines
// are returned for observability and testing.
func (r *Runner) Run(ctx context.Context, loops *int) ([]*NodeScenario, []*PodScenario, error) {
	nodeScenarios := make([]*NodeScenario, 0, len(r.policy.NodeScenarios))
	for _, spec := range r.policy.NodeScenarios {
		nodeScenarios = append(nodeScenarios, NewNodeScenario(spec, r.inventory, r.driver, r.executor, r.sink, r.log, r.opts...))
	}

	podScenarios := make([]*PodScenario, 0, len(r.policy.PodScenarios))
	for _, spec := range r.policy.PodScenarios {
		podScenarios = append(podScenarios, NewPodScenario(spec, r.pods, r.sink, r.log, r.opts...))
	}

	var remaining *int

	if loops != nil {
		count := *loops
		remaining = &count
	}

	for remaining == nil || *remaining > 0 {
		if ctx.Err() != nil {
			return nodeScenarios, podScenarios, ctx.Err()
		}

		round := uuid.New().String()

		log := r.log.With("round", round)
		log.Infow("starting round", "nodeScenarios", len(nodeScenarios), "podScenarios", len(podScenarios))
		r.sink.EventWithTags("chaos round started", fmt.Sprintf("%d node scenario(s), %d pod scenario(s)", len(nodeScenarios), len(podScenarios)), []string{"round:" + round})
		r.sink.MetricRound(nil)

		for _, s := range nodeScenarios {
			results := s.Execute(ctx)
			r.sink.MetricScenarioExecuted(true, []string{"scenario:" + s.Name(), "kind:node"})
			log.Debugw("node scenario executed", "scenario", s.Name(), "results", len(results))
		}

		for _, s := range podScenarios {
			results := s.Execute(ctx)
			r.sink.MetricScenarioExecuted(true, []string{"scenario:" + s.Name(), "kind:pod"})
			log.Debugw("pod scenario executed", "scenario", s.Name(), "results", len(results))
		}

		r.sleep(ctx, log)

		// refresh cluster membership before the next round; a transient
		// failure must not stop ongoing chaos testing
		if err := retry.Do(r.inventory.Sync, retry.Attempts(inventorySyncAttempts), retry.LastErrorOnly(true)); err != nil {
			log.Errorw("error syncing inventory", "error", err)
		}

		if remaining != nil {
			*remaining--
		}
	}

	return nodeScenarios, podScenarios, nil
}

// sleep blocks for a whole number of seconds drawn uniformly from the
// configured pacing bounds; the randomized cadence keeps disruptions from
// being trivially anticipated
func (r *Runner) sleep(ctx context.Context, log *zap.SugaredLogger) {
	min := r.policy.Config.MinSecondsBetweenRuns
	max := r.policy.Config.MaxSecondsBetweenRuns

	seconds := int(min + r.options.rng.Float64()*(max-min))

	log.Infow("sleeping between rounds", "seconds", seconds)
	waitFor(ctx, time.Duration(seconds)*time.Second)
}
