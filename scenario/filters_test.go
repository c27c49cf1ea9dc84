// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package scenario

import (
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DataDog/chaos-seal/node"
	"github.com/DataDog/chaos-seal/policy"
)

var _ = Describe("applyFilters", func() {
	var (
		nodes []*node.Node
		rng   *rand.Rand
		// 2025-03-10 is a Monday
		monday = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	)

	intPtr := func(i int) *int { return &i }
	floatPtr := func(f float64) *float64 { return &f }

	names := func(nodes []*node.Node) []string {
		out := []string{}
		for _, n := range nodes {
			out = append(out, n.Name)
		}

		return out
	}

	BeforeEach(func() {
		nodes = []*node.Node{
			{Name: "node1", IP: "10.0.0.1", Group: "backend", State: node.StateUp},
			{Name: "node2", IP: "10.0.0.2", Group: "backend", State: node.StateDown},
			{Name: "node3", IP: "10.0.0.3", Group: "frontend", State: node.StateUp},
			{Name: "node4", IP: "10.0.0.4", Group: "frontend", State: node.StateUp},
		}
		rng = rand.New(rand.NewSource(1)) //nolint:gosec
	})

	Describe("with a property filter", func() {
		It("should keep only targets with the matching attribute value", func() {
			filters := []policy.Filter{{Property: &policy.PropertySelector{Name: "group", Value: "backend"}}}
			Expect(names(applyFilters(filters, nodes, monday, rng))).To(Equal([]string{"node1", "node2"}))
		})

		It("should drop every target for an unknown attribute name", func() {
			filters := []policy.Filter{{Property: &policy.PropertySelector{Name: "flavor", Value: "large"}}}
			Expect(applyFilters(filters, nodes, monday, rng)).To(BeEmpty())
		})
	})

	Describe("with a dayTime filter", func() {
		officeHours := policy.DayTimeFilter{
			OnlyDays:  []string{"monday"},
			StartTime: &policy.TimeOfDay{Hour: 9},
			EndTime:   &policy.TimeOfDay{Hour: 17},
		}

		It("should pass the whole batch inside the window", func() {
			filters := []policy.Filter{{DayTime: &officeHours}}
			Expect(applyFilters(filters, nodes, monday, rng)).To(HaveLen(4))
		})

		It("should empty the batch outside the window", func() {
			filters := []policy.Filter{{DayTime: &officeHours}}
			sunday := time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC)
			Expect(applyFilters(filters, nodes, sunday, rng)).To(BeEmpty())
		})
	})

	Describe("with a randomSample filter", func() {
		It("should keep exactly the requested size", func() {
			filters := []policy.Filter{{RandomSample: &policy.RandomSampleFilter{Size: intPtr(2)}}}
			sampled := applyFilters(filters, nodes, monday, rng)
			Expect(sampled).To(HaveLen(2))

			for _, name := range names(sampled) {
				Expect(names(nodes)).To(ContainElement(name))
			}
		})

		It("should never return more targets than it received", func() {
			filters := []policy.Filter{{RandomSample: &policy.RandomSampleFilter{Size: intPtr(10)}}}
			Expect(applyFilters(filters, nodes, monday, rng)).To(HaveLen(4))
		})

		It("should size the sample by ratio of the received count", func() {
			filters := []policy.Filter{{RandomSample: &policy.RandomSampleFilter{Ratio: floatPtr(0.5)}}}
			Expect(applyFilters(filters, nodes, monday, rng)).To(HaveLen(2))
		})

		It("should empty the batch for a zero size", func() {
			filters := []policy.Filter{{RandomSample: &policy.RandomSampleFilter{Size: intPtr(0)}}}
			Expect(applyFilters(filters, nodes, monday, rng)).To(BeEmpty())
		})

		It("should not reorder the caller's slice", func() {
			filters := []policy.Filter{{RandomSample: &policy.RandomSampleFilter{Size: intPtr(2)}}}
			applyFilters(filters, nodes, monday, rng)
			Expect(names(nodes)).To(Equal([]string{"node1", "node2", "node3", "node4"}))
		})
	})

	Describe("with a probability filter", func() {
		It("should pass the whole batch unchanged for probability 1", func() {
			filters := []policy.Filter{{Probability: &policy.ProbabilityFilter{ProbabilityPassAll: floatPtr(1)}}}
			Expect(names(applyFilters(filters, nodes, monday, rng))).To(Equal([]string{"node1", "node2", "node3", "node4"}))
		})

		It("should empty the batch for probability 0", func() {
			filters := []policy.Filter{{Probability: &policy.ProbabilityFilter{ProbabilityPassAll: floatPtr(0)}}}
			Expect(applyFilters(filters, nodes, monday, rng)).To(BeEmpty())
		})
	})

	Describe("chaining filters", func() {
		It("should apply filters in declaration order over shrinking sets", func() {
			filters := []policy.Filter{
				{Property: &policy.PropertySelector{Name: "state", Value: "up"}},
				{RandomSample: &policy.RandomSampleFilter{Size: intPtr(1)}},
			}

			sampled := applyFilters(filters, nodes, monday, rng)
			Expect(sampled).To(HaveLen(1))
			state, _ := sampled[0].TargetProperty("state")
			Expect(state).To(Equal("up"))
		})

		It("should short-circuit once the set is empty", func() {
			filters := []policy.Filter{
				{Probability: &policy.ProbabilityFilter{ProbabilityPassAll: floatPtr(0)}},
				{RandomSample: &policy.RandomSampleFilter{Size: intPtr(4)}},
			}

			Expect(applyFilters(filters, nodes, monday, rng)).To(BeEmpty())
		})

		It("should leave the batch alone when no filters are declared", func() {
			Expect(names(applyFilters(nil, nodes, monday, rng))).To(Equal([]string{"node1", "node2", "node3", "node4"}))
		})
	})
})
