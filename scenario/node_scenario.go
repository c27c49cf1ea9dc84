// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package scenario

import (
	"context"

	"go.uber.org/zap"

	"github.com/DataDog/chaos-seal/metrics"
	"github.com/DataDog/chaos-seal/node"
	"github.com/DataDog/chaos-seal/policy"
	"github.com/DataDog/chaos-seal/remote"
)

// NodeScenario evaluates one node scenario definition against the live node
// inventory and applies its actions through the infrastructure driver and the
// remote executor.
type NodeScenario struct {
	spec      policy.NodeScenario
	inventory node.Inventory
	driver    node.Driver
	executor  remote.Executor
	sink      metrics.Sink
	log       *zap.SugaredLogger
	options   options
}

// NewNodeScenario builds a node scenario engine from a validated policy entry
func NewNodeScenario(spec policy.NodeScenario, inventory node.Inventory, driver node.Driver, executor remote.Executor, sink metrics.Sink, log *zap.SugaredLogger, opts ...Option) *NodeScenario {
	return &NodeScenario{
		spec:      spec,
		inventory: inventory,
		driver:    driver,
		executor:  executor,
		sink:      sink,
		log:       log.With("scenario", spec.Name),
		options:   newOptions(opts),
	}
}

// Name returns the scenario name used in logs and metrics
func (s *NodeScenario) Name() string {
	return s.spec.Name
}

// Execute runs the scenario once against the current inventory snapshot:
// match, filter, then apply every action to the same surviving candidate set.
// An empty candidate set is a no-op, not an error.
func (s *NodeScenario) Execute(ctx context.Context) []Result {
	candidates := s.match()
	s.log.Debugw("matched nodes", "count", len(candidates))

	candidates = applyFilters(s.spec.Filters, candidates, s.options.now(), s.options.rng)
	if len(candidates) == 0 {
		s.log.Infow("no nodes left after filtering, skipping actions")

		return nil
	}

	results := []Result{}

	for _, action := range s.spec.Actions {
		results = append(results, s.apply(ctx, action, candidates)...)
	}

	return results
}

// match resolves every match clause against the inventory snapshot and unions
// the outcomes, de-duplicated by node identity in first-seen order
func (s *NodeScenario) match() []*node.Node {
	matched := []*node.Node{}

	for _, m := range s.spec.Match {
		for _, n := range s.inventory.Nodes() {
			if v, ok := n.TargetProperty(m.Property.Name); ok && v == m.Property.Value {
				matched = append(matched, n)
			}
		}
	}

	return dedupe(matched)
}

func (s *NodeScenario) apply(ctx context.Context, action policy.NodeAction, nodes []*node.Node) []Result {
	switch {
	case action.Start != nil:
		return s.applyDriver(ctx, "start", nodes, func(n *node.Node) error {
			return s.driver.Start(ctx, n)
		})
	case action.Stop != nil:
		force := action.Stop.Force

		return s.applyDriver(ctx, "stop", nodes, func(n *node.Node) error {
			return s.driver.Stop(ctx, n, force)
		})
	case action.Execute != nil:
		return s.applyExecute(ctx, action.Execute.Cmd, nodes)
	case action.Wait != nil:
		s.log.Infow("waiting", "seconds", action.Wait.Seconds)
		waitFor(ctx, action.Wait.Duration())

		return nil
	}

	return nil
}

// applyDriver calls the infrastructure driver once per node; a failure on one
// node is captured in its result and does not abort the remaining nodes
func (s *NodeScenario) applyDriver(ctx context.Context, name string, nodes []*node.Node, call func(*node.Node) error) []Result {
	results := make([]Result, 0, len(nodes))

	for _, n := range nodes {
		result := Result{Target: n.TargetID(), Action: name}

		if err := call(n); err != nil {
			s.log.Errorw("error applying node action", "action", name, "node", n.String(), "error", err)

			result.ReturnCode = 1
			result.Error = err.Error()
		}

		s.sink.MetricActionApplied(result.Error == "", []string{"action:" + name, "scenario:" + s.spec.Name})
		results = append(results, result)
	}

	return results
}

// applyExecute delegates the whole batch to the remote executor and reshapes
// its per-node outcomes, preserving candidate order
func (s *NodeScenario) applyExecute(ctx context.Context, cmd string, nodes []*node.Node) []Result {
	executed := s.executor.Execute(ctx, cmd, nodes)
	results := make([]Result, 0, len(nodes))

	for _, n := range nodes {
		res := executed[n.IP]
		result := Result{
			Target:     n.TargetID(),
			Action:     "execute",
			ReturnCode: res.ReturnCode,
			Stdout:     res.Stdout,
			Stderr:     res.Stderr,
			Error:      res.Error,
		}

		if res.Error != "" {
			s.log.Errorw("error executing remote command", "node", n.String(), "error", res.Error)
		}

		s.sink.MetricActionApplied(res.Error == "", []string{"action:execute", "scenario:" + s.spec.Name})
		results = append(results, result)
	}

	return results
}
