// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package scenario

import (
	"context"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"

	"github.com/DataDog/chaos-seal/k8s"
	"github.com/DataDog/chaos-seal/metrics"
	"github.com/DataDog/chaos-seal/policy"
)

// podTarget adapts a pod snapshot to the filter chain
type podTarget struct {
	pod corev1.Pod
}

func (p podTarget) TargetID() string {
	return p.pod.Namespace + "/" + p.pod.Name
}

func (p podTarget) TargetProperty(name string) (string, bool) {
	switch name {
	case "name":
		return p.pod.Name, true
	case "state":
		return string(p.pod.Status.Phase), true
	}

	return "", false
}

// PodScenario evaluates one pod scenario definition against the cluster and
// applies its actions through the Kubernetes pod inventory.
type PodScenario struct {
	spec    policy.PodScenario
	pods    k8s.PodInventory
	sink    metrics.Sink
	log     *zap.SugaredLogger
	options options
}

// NewPodScenario builds a pod scenario engine from a validated policy entry
func NewPodScenario(spec policy.PodScenario, pods k8s.PodInventory, sink metrics.Sink, log *zap.SugaredLogger, opts ...Option) *PodScenario {
	return &PodScenario{
		spec:    spec,
		pods:    pods,
		sink:    sink,
		log:     log.With("scenario", spec.Name),
		options: newOptions(opts),
	}
}

// Name returns the scenario name used in logs and metrics
func (s *PodScenario) Name() string {
	return s.spec.Name
}

// Execute runs the scenario once: match, filter, then apply every action to
// the same surviving candidate set. An empty candidate set is a no-op, not an
// error.
func (s *PodScenario) Execute(ctx context.Context) []Result {
	candidates := s.match(ctx)
	s.log.Debugw("matched pods", "count", len(candidates))

	candidates = applyFilters(s.spec.Filters, candidates, s.options.now(), s.options.rng)
	if len(candidates) == 0 {
		s.log.Infow("no pods left after filtering, skipping actions")

		return nil
	}

	results := []Result{}

	for _, action := range s.spec.Actions {
		results = append(results, s.apply(ctx, action, candidates)...)
	}

	return results
}

// match resolves every match clause against the cluster and unions the
// outcomes, de-duplicated by pod identity in first-seen order. A listing
// failure on one clause is logged and skipped so one API hiccup never kills
// the whole scenario.
func (s *PodScenario) match(ctx context.Context) []podTarget {
	matched := []podTarget{}

	for _, m := range s.spec.Match {
		pods, err := s.list(ctx, m)
		if err != nil {
			s.log.Errorw("error listing pods for match clause", "error", err)

			continue
		}

		for _, pod := range pods {
			matched = append(matched, podTarget{pod: pod})
		}
	}

	return dedupe(matched)
}

func (s *PodScenario) list(ctx context.Context, m policy.PodMatch) ([]corev1.Pod, error) {
	switch {
	case m.Namespace != nil:
		return s.pods.PodsInNamespace(ctx, m.Namespace.Name)
	case m.Deployment != nil:
		return s.pods.PodsForDeployment(ctx, m.Deployment.Name, m.Deployment.Namespace)
	case m.Labels != nil:
		return s.pods.PodsBySelector(ctx, m.Labels.Selector, m.Labels.Namespace)
	}

	return nil, nil
}

func (s *PodScenario) apply(ctx context.Context, action policy.PodAction, targets []podTarget) []Result {
	switch {
	case action.Kill != nil:
		return s.applyKill(ctx, action.Kill, targets)
	case action.Wait != nil:
		s.log.Infow("waiting", "seconds", action.Wait.Seconds)
		waitFor(ctx, action.Wait.Duration())

		return nil
	}

	return nil
}

// applyKill flips an independent coin per pod, distinct from the batch-level
// probability filter, and deletes the pods that lose it
func (s *PodScenario) applyKill(ctx context.Context, kill *policy.KillAction, targets []podTarget) []Result {
	probability := kill.KillProbability()
	results := []Result{}

	for _, t := range targets {
		if s.options.rng.Float64() >= probability {
			s.log.Debugw("pod spared by kill probability", "pod", t.TargetID())

			continue
		}

		result := Result{Target: t.TargetID(), Action: "kill"}

		if err := s.pods.KillPod(ctx, t.pod, kill.Force); err != nil {
			s.log.Errorw("error killing pod", "pod", t.TargetID(), "error", err)

			result.ReturnCode = 1
			result.Error = err.Error()
		}

		s.sink.MetricActionApplied(result.Error == "", []string{"action:kill", "scenario:" + s.spec.Name})
		results = append(results, result)
	}

	return results
}
