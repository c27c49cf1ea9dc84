// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package policy_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DataDog/chaos-seal/policy"
)

const fullDocument = `
config:
  minSecondsBetweenRuns: 1
  maxSecondsBetweenRuns: 2
nodeScenarios:
- name: restart backends
  description: stop and start the backend machines during office hours
  match:
  - property:
      name: group
      value: backend
  filters:
  - dayTime:
      onlyDays:
      - monday
      - tuesday
      startTime:
        hour: 9
        minute: 0
        second: 0
      endTime:
        hour: 17
        minute: 30
        second: 0
  - randomSample:
      size: 1
  - probability:
      probabilityPassAll: 0.5
  actions:
  - stop:
      force: true
  - wait:
      seconds: 30
  - start:
  - execute:
      cmd: "uptime"
podScenarios:
- name: kill frontends
  match:
  - namespace:
      name: web
  - deployment:
      name: front
      namespace: web
  - labels:
      selector: "app=front"
      namespace: web
  filters:
  - randomSample:
      ratio: 0.5
  actions:
  - kill:
      probability: 0.7
      force: true
`

var _ = Describe("Load", func() {
	Describe("with a complete document", func() {
		var p *policy.Policy

		BeforeEach(func() {
			var err error

			p, err = policy.Load(strings.NewReader(fullDocument))
			Expect(err).ToNot(HaveOccurred())
		})

		It("should decode the pacing configuration", func() {
			Expect(p.Config.MinSecondsBetweenRuns).To(Equal(1.0))
			Expect(p.Config.MaxSecondsBetweenRuns).To(Equal(2.0))
		})

		It("should decode every scenario", func() {
			Expect(p.NodeScenarios).To(HaveLen(1))
			Expect(p.PodScenarios).To(HaveLen(1))
		})

		It("should decode the node scenario clauses", func() {
			s := p.NodeScenarios[0]

			Expect(s.Name).To(Equal("restart backends"))
			Expect(s.Match).To(HaveLen(1))
			Expect(s.Match[0].Property).ToNot(BeNil())
			Expect(s.Match[0].Property.Name).To(Equal("group"))
			Expect(s.Match[0].Property.Value).To(Equal("backend"))

			Expect(s.Filters).To(HaveLen(3))
			Expect(s.Filters[0].DayTime).ToNot(BeNil())
			Expect(s.Filters[0].DayTime.OnlyDays).To(Equal([]string{"monday", "tuesday"}))
			Expect(s.Filters[0].DayTime.StartTime.SecondOfDay()).To(Equal(9 * 3600))
			Expect(s.Filters[1].RandomSample).ToNot(BeNil())
			Expect(*s.Filters[1].RandomSample.Size).To(Equal(1))
			Expect(s.Filters[2].Probability).ToNot(BeNil())
			Expect(*s.Filters[2].Probability.ProbabilityPassAll).To(Equal(0.5))

			Expect(s.Actions).To(HaveLen(4))
			Expect(s.Actions[0].Stop).ToNot(BeNil())
			Expect(s.Actions[0].Stop.Force).To(BeTrue())
			Expect(s.Actions[1].Wait).ToNot(BeNil())
			Expect(s.Actions[1].Wait.Duration()).To(Equal(30 * time.Second))
			Expect(s.Actions[2].Start).ToNot(BeNil())
			Expect(s.Actions[3].Execute).ToNot(BeNil())
			Expect(s.Actions[3].Execute.Cmd).To(Equal("uptime"))
		})

		It("should decode the pod scenario clauses", func() {
			s := p.PodScenarios[0]

			Expect(s.Match).To(HaveLen(3))
			Expect(s.Match[0].Namespace.Name).To(Equal("web"))
			Expect(s.Match[1].Deployment.Name).To(Equal("front"))
			Expect(s.Match[1].Deployment.Namespace).To(Equal("web"))
			Expect(s.Match[2].Labels.Selector).To(Equal("app=front"))

			Expect(s.Filters).To(HaveLen(1))
			Expect(*s.Filters[0].RandomSample.Ratio).To(Equal(0.5))

			Expect(s.Actions).To(HaveLen(1))
			Expect(s.Actions[0].Kill).ToNot(BeNil())
			Expect(s.Actions[0].Kill.KillProbability()).To(Equal(0.7))
			Expect(s.Actions[0].Kill.Force).To(BeTrue())
		})
	})

	Describe("with a minimal document", func() {
		It("should default the pacing configuration", func() {
			p, err := policy.Load(strings.NewReader("nodeScenarios: []\n"))
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Config.MinSecondsBetweenRuns).To(Equal(0.0))
			Expect(p.Config.MaxSecondsBetweenRuns).To(Equal(300.0))
		})

		It("should accept empty filters and actions sequences", func() {
			doc := `
nodeScenarios:
- name: noop
  match:
  - property:
      name: name
      value: node1
  filters: []
  actions: []
`
			p, err := policy.Load(strings.NewReader(doc))
			Expect(err).ToNot(HaveOccurred())
			Expect(p.NodeScenarios[0].Filters).To(BeEmpty())
			Expect(p.NodeScenarios[0].Actions).To(BeEmpty())
		})

		It("should default the per-pod kill probability to 1", func() {
			doc := `
podScenarios:
- name: kill
  match:
  - namespace:
      name: web
  filters: []
  actions:
  - kill: {}
`
			p, err := policy.Load(strings.NewReader(doc))
			Expect(err).ToNot(HaveOccurred())
			Expect(p.PodScenarios[0].Actions[0].Kill.KillProbability()).To(Equal(1.0))
			Expect(p.PodScenarios[0].Actions[0].Kill.Force).To(BeFalse())
		})
	})

	Describe("with structurally invalid documents", func() {
		DescribeTable("rejecting the document",
			func(doc string, fragment string) {
				_, err := policy.Load(strings.NewReader(doc))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(fragment))
			},
			Entry("unknown top-level key", `
nodeScenariosTypo: []
`, "field nodeScenariosTypo not found"),
			Entry("unknown scenario key", `
nodeScenarios:
- name: typo
  match:
  - property:
      name: name
      value: node1
  filterz: []
  actions: []
`, "field filterz not found"),
			Entry("unknown match clause", `
nodeScenarios:
- name: typo
  match:
  - propperty:
      name: name
      value: node1
  filters: []
  actions: []
`, `unknown node match clause "propperty"`),
			Entry("unknown pod match clause", `
podScenarios:
- name: typo
  match:
  - property:
      name: name
      value: pod1
  filters: []
  actions: []
`, `unknown pod match clause "property"`),
			Entry("unknown filter clause", `
nodeScenarios:
- name: typo
  match:
  - property:
      name: name
      value: node1
  filters:
  - sample:
      size: 1
  actions: []
`, `unknown filter clause "sample"`),
			Entry("unknown node action clause", `
nodeScenarios:
- name: typo
  match:
  - property:
      name: name
      value: node1
  filters: []
  actions:
  - kill: {}
`, `unknown node action clause "kill"`),
			Entry("unknown pod action clause", `
podScenarios:
- name: typo
  match:
  - namespace:
      name: web
  filters: []
  actions:
  - stop: {}
`, `unknown pod action clause "stop"`),
			Entry("extra field inside a clause payload", `
nodeScenarios:
- name: typo
  match:
  - property:
      name: name
      value: node1
      bogus: true
  filters: []
  actions: []
`, "field bogus not found"),
			Entry("two keys in one clause mapping", `
nodeScenarios:
- name: typo
  match:
  - property:
      name: name
      value: node1
  filters:
  - randomSample:
      size: 1
    probability:
      probabilityPassAll: 0.5
  actions: []
`, "expected exactly one key, got 2"),
		)
	})

	Describe("with documents failing value validation", func() {
		DescribeTable("rejecting the document",
			func(doc string, fragment string) {
				_, err := policy.Load(strings.NewReader(doc))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(fragment))
			},
			Entry("missing scenario name", `
nodeScenarios:
- match:
  - property:
      name: name
      value: node1
  filters: []
  actions: []
`, "name is required"),
			Entry("missing match", `
nodeScenarios:
- name: nomatch
  filters: []
  actions: []
`, "match is required"),
			Entry("missing filters", `
nodeScenarios:
- name: nofilters
  match:
  - property:
      name: name
      value: node1
  actions: []
`, "filters is required"),
			Entry("missing actions", `
nodeScenarios:
- name: noactions
  match:
  - property:
      name: name
      value: node1
  filters: []
`, "actions is required"),
			Entry("unsupported node property name", `
nodeScenarios:
- name: badprop
  match:
  - property:
      name: flavor
      value: large
  filters: []
  actions: []
`, "property name must be one of"),
			Entry("node-only property used in a pod filter", `
podScenarios:
- name: badprop
  match:
  - namespace:
      name: web
  filters:
  - property:
      name: group
      value: backend
  actions: []
`, "property name must be one of"),
			Entry("unknown day name", `
nodeScenarios:
- name: badday
  match:
  - property:
      name: name
      value: node1
  filters:
  - dayTime:
      onlyDays:
      - funday
      startTime:
        hour: 9
        minute: 0
        second: 0
      endTime:
        hour: 17
        minute: 0
        second: 0
  actions: []
`, `unknown day name "funday"`),
			Entry("out-of-range start time", `
nodeScenarios:
- name: badtime
  match:
  - property:
      name: name
      value: node1
  filters:
  - dayTime:
      onlyDays:
      - monday
      startTime:
        hour: 24
        minute: 0
        second: 0
      endTime:
        hour: 17
        minute: 0
        second: 0
  actions: []
`, "hour must be between 0 and 23"),
			Entry("random sample without size or ratio", `
nodeScenarios:
- name: badsample
  match:
  - property:
      name: name
      value: node1
  filters:
  - randomSample: {}
  actions: []
`, "either size or ratio is required"),
			Entry("random sample ratio above 1", `
nodeScenarios:
- name: badratio
  match:
  - property:
      name: name
      value: node1
  filters:
  - randomSample:
      ratio: 1.5
  actions: []
`, "ratio must be between 0 and 1"),
			Entry("probability without a value", `
nodeScenarios:
- name: badprob
  match:
  - property:
      name: name
      value: node1
  filters:
  - probability: {}
  actions: []
`, "probabilityPassAll is required"),
			Entry("probability above 1", `
nodeScenarios:
- name: badprob
  match:
  - property:
      name: name
      value: node1
  filters:
  - probability:
      probabilityPassAll: 2
  actions: []
`, "probabilityPassAll must be between 0 and 1"),
			Entry("execute without a command", `
nodeScenarios:
- name: badexec
  match:
  - property:
      name: name
      value: node1
  filters: []
  actions:
  - execute: {}
`, "execute cmd is required"),
			Entry("negative wait", `
nodeScenarios:
- name: badwait
  match:
  - property:
      name: name
      value: node1
  filters: []
  actions:
  - wait:
      seconds: -1
`, "wait seconds must not be negative"),
			Entry("kill probability above 1", `
podScenarios:
- name: badkill
  match:
  - namespace:
      name: web
  filters: []
  actions:
  - kill:
      probability: 1.5
`, "kill probability must be between 0 and 1"),
			Entry("min pacing above max pacing", `
config:
  minSecondsBetweenRuns: 10
  maxSecondsBetweenRuns: 5
nodeScenarios: []
`, "maxSecondsBetweenRuns must be greater than or equal to minSecondsBetweenRuns"),
		)
	})
})

var _ = Describe("DayTimeFilter", func() {
	window := func(startHour, endHour int) policy.DayTimeFilter {
		return policy.DayTimeFilter{
			OnlyDays:  []string{"monday"},
			StartTime: &policy.TimeOfDay{Hour: startHour},
			EndTime:   &policy.TimeOfDay{Hour: endHour},
		}
	}

	// 2025-03-10 is a Monday
	monday := func(hour int) time.Time {
		return time.Date(2025, time.March, 10, hour, 0, 0, 0, time.UTC)
	}

	It("should match inside the window on an allowed day", func() {
		Expect(window(9, 17).Matches(monday(12))).To(BeTrue())
	})

	It("should treat the start as inclusive and the end as exclusive", func() {
		Expect(window(9, 17).Matches(monday(9))).To(BeTrue())
		Expect(window(9, 17).Matches(monday(17))).To(BeFalse())
	})

	It("should reject days outside onlyDays", func() {
		tuesday := time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC)
		Expect(window(9, 17).Matches(tuesday)).To(BeFalse())
	})

	It("should wrap windows crossing midnight", func() {
		Expect(window(22, 2).Matches(monday(23))).To(BeTrue())
		Expect(window(22, 2).Matches(monday(1))).To(BeTrue())
		Expect(window(22, 2).Matches(monday(12))).To(BeFalse())
	})
})

var _ = Describe("RandomSampleFilter", func() {
	intPtr := func(i int) *int { return &i }
	floatPtr := func(f float64) *float64 { return &f }

	It("should clamp an absolute size to the candidate count", func() {
		f := policy.RandomSampleFilter{Size: intPtr(10)}
		Expect(f.SampleSize(3)).To(Equal(3))
	})

	It("should floor ratio sizes", func() {
		f := policy.RandomSampleFilter{Ratio: floatPtr(0.5)}
		Expect(f.SampleSize(5)).To(Equal(2))
	})

	It("should prefer size over ratio when both are given", func() {
		f := policy.RandomSampleFilter{Size: intPtr(1), Ratio: floatPtr(1)}
		Expect(f.SampleSize(4)).To(Equal(1))
	})
})
