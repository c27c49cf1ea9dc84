// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package policy implements the chaos policy document model: a schema-validated
// set of node and pod scenarios combining target matching, filtering and
// disruptive actions. Documents are decoded closed-world, any unrecognized key
// at any level is a hard failure so that a typo in a policy file never turns
// into a silent no-op.
package policy

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const defaultMaxSecondsBetweenRuns = 300

// Policy is a fully validated chaos policy document. It is immutable once
// loaded; the runner never mutates it between rounds.
type Policy struct {
	Config        Config         `yaml:"config"`
	NodeScenarios []NodeScenario `yaml:"nodeScenarios"`
	PodScenarios  []PodScenario  `yaml:"podScenarios"`
}

// Config governs the pacing of the scheduling loop.
type Config struct {
	MinSecondsBetweenRuns float64 `yaml:"minSecondsBetweenRuns"`
	MaxSecondsBetweenRuns float64 `yaml:"maxSecondsBetweenRuns"`
}

// DefaultConfig returns the pacing configuration used when a policy document
// carries no config section.
func DefaultConfig() Config {
	return Config{
		MinSecondsBetweenRuns: 0,
		MaxSecondsBetweenRuns: defaultMaxSecondsBetweenRuns,
	}
}

// UnmarshalYAML decodes the config section, defaulting the maximum delay when
// it is not given.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig Config

	raw := rawConfig(DefaultConfig())
	if err := decodeStrict(value, &raw); err != nil {
		return err
	}

	*c = Config(raw)

	return nil
}

// Validate checks the pacing configuration bounds
func (c Config) Validate() (retErr error) {
	if c.MinSecondsBetweenRuns < 0 {
		retErr = multierror.Append(retErr, fmt.Errorf("minSecondsBetweenRuns must not be negative"))
	}

	if c.MaxSecondsBetweenRuns < c.MinSecondsBetweenRuns {
		retErr = multierror.Append(retErr, fmt.Errorf("maxSecondsBetweenRuns must be greater than or equal to minSecondsBetweenRuns"))
	}

	return multierror.Prefix(retErr, "config:")
}

// NodeScenario declares a single unit of node chaos: which nodes to target,
// what conditions must hold, and what to do to them.
type NodeScenario struct {
	Name        string
	Description string
	Match       []NodeMatch
	Filters     []Filter
	Actions     []NodeAction

	present clausePresence
}

// PodScenario declares a single unit of pod chaos.
type PodScenario struct {
	Name        string
	Description string
	Match       []PodMatch
	Filters     []Filter
	Actions     []PodAction

	present clausePresence
}

// clausePresence records which of the required clause sequences were present
// in the document, so an absent sequence can be told apart from an empty one.
type clausePresence struct {
	match   bool
	filters bool
	actions bool
}

func (p clausePresence) validate() (retErr error) {
	if !p.match {
		retErr = multierror.Append(retErr, fmt.Errorf("match is required"))
	}

	if !p.filters {
		retErr = multierror.Append(retErr, fmt.Errorf("filters is required (may be an empty sequence)"))
	}

	if !p.actions {
		retErr = multierror.Append(retErr, fmt.Errorf("actions is required (may be an empty sequence)"))
	}

	return retErr
}

// UnmarshalYAML decodes a node scenario, tracking clause presence
func (s *NodeScenario) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name        string        `yaml:"name"`
		Description string        `yaml:"description"`
		Match       *[]NodeMatch  `yaml:"match"`
		Filters     *[]Filter     `yaml:"filters"`
		Actions     *[]NodeAction `yaml:"actions"`
	}

	if err := decodeStrict(value, &raw); err != nil {
		return err
	}

	s.Name = raw.Name
	s.Description = raw.Description

	if raw.Match != nil {
		s.Match = *raw.Match
		s.present.match = true
	}

	if raw.Filters != nil {
		s.Filters = *raw.Filters
		s.present.filters = true
	}

	if raw.Actions != nil {
		s.Actions = *raw.Actions
		s.present.actions = true
	}

	return nil
}

// UnmarshalYAML decodes a pod scenario, tracking clause presence
func (s *PodScenario) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name        string       `yaml:"name"`
		Description string       `yaml:"description"`
		Match       *[]PodMatch  `yaml:"match"`
		Filters     *[]Filter    `yaml:"filters"`
		Actions     *[]PodAction `yaml:"actions"`
	}

	if err := decodeStrict(value, &raw); err != nil {
		return err
	}

	s.Name = raw.Name
	s.Description = raw.Description

	if raw.Match != nil {
		s.Match = *raw.Match
		s.present.match = true
	}

	if raw.Filters != nil {
		s.Filters = *raw.Filters
		s.present.filters = true
	}

	if raw.Actions != nil {
		s.Actions = *raw.Actions
		s.present.actions = true
	}

	return nil
}

// Validate checks the scenario structure and every clause it carries
func (s *NodeScenario) Validate() (retErr error) {
	if s.Name == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("name is required"))
	}

	if err := s.present.validate(); err != nil {
		retErr = multierror.Append(retErr, err)
	}

	for i, m := range s.Match {
		if err := m.Validate(); err != nil {
			retErr = multierror.Append(retErr, multierror.Prefix(err, fmt.Sprintf("match[%d]:", i)))
		}
	}

	for i, f := range s.Filters {
		if err := f.Validate(NodeProperties); err != nil {
			retErr = multierror.Append(retErr, multierror.Prefix(err, fmt.Sprintf("filters[%d]:", i)))
		}
	}

	for i, a := range s.Actions {
		if err := a.Validate(); err != nil {
			retErr = multierror.Append(retErr, multierror.Prefix(err, fmt.Sprintf("actions[%d]:", i)))
		}
	}

	return multierror.Prefix(retErr, fmt.Sprintf("nodeScenario %q:", s.Name))
}

// Validate checks the scenario structure and every clause it carries
func (s *PodScenario) Validate() (retErr error) {
	if s.Name == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("name is required"))
	}

	if err := s.present.validate(); err != nil {
		retErr = multierror.Append(retErr, err)
	}

	for i, m := range s.Match {
		if err := m.Validate(); err != nil {
			retErr = multierror.Append(retErr, multierror.Prefix(err, fmt.Sprintf("match[%d]:", i)))
		}
	}

	for i, f := range s.Filters {
		if err := f.Validate(PodProperties); err != nil {
			retErr = multierror.Append(retErr, multierror.Prefix(err, fmt.Sprintf("filters[%d]:", i)))
		}
	}

	for i, a := range s.Actions {
		if err := a.Validate(); err != nil {
			retErr = multierror.Append(retErr, multierror.Prefix(err, fmt.Sprintf("actions[%d]:", i)))
		}
	}

	return multierror.Prefix(retErr, fmt.Sprintf("podScenario %q:", s.Name))
}

// Validate runs value-level validation over the whole document. Structural
// validation (unknown keys, clause shapes) already happened during decoding.
func (p *Policy) Validate() (retErr error) {
	if err := p.Config.Validate(); err != nil {
		retErr = multierror.Append(retErr, err)
	}

	for i := range p.NodeScenarios {
		if err := p.NodeScenarios[i].Validate(); err != nil {
			retErr = multierror.Append(retErr, err)
		}
	}

	for i := range p.PodScenarios {
		if err := p.PodScenarios[i].Validate(); err != nil {
			retErr = multierror.Append(retErr, err)
		}
	}

	return retErr
}

// Load decodes and validates a policy document. Any structural or value-level
// failure aborts the load, a document that does not validate produces zero
// scenarios.
func Load(r io.Reader) (*Policy, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	p := Policy{Config: DefaultConfig()}
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("error decoding policy document: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("error validating policy document: %w", err)
	}

	return &p, nil
}

// LoadFile reads, decodes and validates a policy document from disk
func LoadFile(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening policy file: %w", err)
	}

	defer f.Close()

	return Load(f)
}
