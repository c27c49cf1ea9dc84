// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package policy

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// NodeProperties are the node attributes a property clause may select on
var NodeProperties = []string{"name", "ip", "group", "az", "state"}

// PodProperties are the pod attributes a property clause may select on
var PodProperties = []string{"name", "state"}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// decodeStrict decodes a yaml node into out, rejecting any field not declared
// on the target type. It is the closed-world counterpart of node.Decode.
func decodeStrict(node *yaml.Node, out interface{}) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	return dec.Decode(out)
}

// unionKey returns the single key of a clause mapping and its payload node.
// Clause sites are tagged unions: a mapping with exactly one recognized key.
func unionKey(value *yaml.Node) (string, *yaml.Node, error) {
	if value.Kind != yaml.MappingNode {
		return "", nil, fmt.Errorf("expected a mapping, got %s", value.Tag)
	}

	if len(value.Content) != 2 {
		return "", nil, fmt.Errorf("expected exactly one key, got %d", len(value.Content)/2)
	}

	return value.Content[0].Value, value.Content[1], nil
}

func isNull(node *yaml.Node) bool {
	return node.Tag == "!!null"
}

// PropertySelector matches targets whose named attribute equals the given value
type PropertySelector struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func (p PropertySelector) validate(allowed []string) (retErr error) {
	found := false

	for _, name := range allowed {
		if p.Name == name {
			found = true

			break
		}
	}

	if !found {
		retErr = multierror.Append(retErr, fmt.Errorf("property name must be one of [%s], got %q", strings.Join(allowed, ", "), p.Name))
	}

	if p.Value == "" {
		retErr = multierror.Append(retErr, fmt.Errorf("property value is required"))
	}

	return retErr
}

// NodeMatch selects the initial node candidate universe for a scenario
type NodeMatch struct {
	Property *PropertySelector
}

// UnmarshalYAML decodes the match clause union by inspecting its single key
func (m *NodeMatch) UnmarshalYAML(value *yaml.Node) error {
	key, payload, err := unionKey(value)
	if err != nil {
		return err
	}

	switch key {
	case "property":
		m.Property = &PropertySelector{}

		return decodeStrict(payload, m.Property)
	default:
		return fmt.Errorf("unknown node match clause %q", key)
	}
}

// Validate checks the selected clause values
func (m NodeMatch) Validate() error {
	return m.Property.validate(NodeProperties)
}

// NamespaceSelector matches every pod of a namespace
type NamespaceSelector struct {
	Name string `yaml:"name"`
}

// DeploymentSelector matches the pods owned by a deployment
type DeploymentSelector struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
}

// LabelsSelector matches pods by label selector within a namespace
type LabelsSelector struct {
	Selector  string `yaml:"selector"`
	Namespace string `yaml:"namespace"`
}

// PodMatch selects the initial pod candidate universe for a scenario
type PodMatch struct {
	Namespace  *NamespaceSelector
	Deployment *DeploymentSelector
	Labels     *LabelsSelector
}

// UnmarshalYAML decodes the match clause union by inspecting its single key
func (m *PodMatch) UnmarshalYAML(value *yaml.Node) error {
	key, payload, err := unionKey(value)
	if err != nil {
		return err
	}

	switch key {
	case "namespace":
		m.Namespace = &NamespaceSelector{}

		return decodeStrict(payload, m.Namespace)
	case "deployment":
		m.Deployment = &DeploymentSelector{}

		return decodeStrict(payload, m.Deployment)
	case "labels":
		m.Labels = &LabelsSelector{}

		return decodeStrict(payload, m.Labels)
	default:
		return fmt.Errorf("unknown pod match clause %q", key)
	}
}

// Validate checks the selected clause values
func (m PodMatch) Validate() (retErr error) {
	switch {
	case m.Namespace != nil:
		if m.Namespace.Name == "" {
			retErr = multierror.Append(retErr, fmt.Errorf("namespace name is required"))
		}
	case m.Deployment != nil:
		if m.Deployment.Name == "" {
			retErr = multierror.Append(retErr, fmt.Errorf("deployment name is required"))
		}

		if m.Deployment.Namespace == "" {
			retErr = multierror.Append(retErr, fmt.Errorf("deployment namespace is required"))
		}
	case m.Labels != nil:
		if m.Labels.Selector == "" {
			retErr = multierror.Append(retErr, fmt.Errorf("labels selector is required"))
		}

		if m.Labels.Namespace == "" {
			retErr = multierror.Append(retErr, fmt.Errorf("labels namespace is required"))
		}
	}

	return retErr
}

// TimeOfDay is a wall-clock instant within a day
type TimeOfDay struct {
	Hour   int `yaml:"hour"`
	Minute int `yaml:"minute"`
	Second int `yaml:"second"`
}

// SecondOfDay returns the instant as a number of seconds since midnight
func (t TimeOfDay) SecondOfDay() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) validate() (retErr error) {
	if t.Hour < 0 || t.Hour > 23 {
		retErr = multierror.Append(retErr, fmt.Errorf("hour must be between 0 and 23"))
	}

	if t.Minute < 0 || t.Minute > 59 {
		retErr = multierror.Append(retErr, fmt.Errorf("minute must be between 0 and 59"))
	}

	if t.Second < 0 || t.Second > 59 {
		retErr = multierror.Append(retErr, fmt.Errorf("second must be between 0 and 59"))
	}

	return retErr
}

// DayTimeFilter gates a whole candidate batch on the evaluation instant: the
// weekday must be one of OnlyDays and the time of day must fall within
// [StartTime, EndTime).
type DayTimeFilter struct {
	OnlyDays  []string   `yaml:"onlyDays"`
	StartTime *TimeOfDay `yaml:"startTime"`
	EndTime   *TimeOfDay `yaml:"endTime"`
}

// Matches reports whether t falls on one of the allowed days within the
// configured window. Windows where start > end wrap across midnight, covering
// [start, midnight) plus [midnight, end) of the following calendar day; the
// day check always applies to t's own calendar day.
func (d DayTimeFilter) Matches(t time.Time) bool {
	dayAllowed := false

	for _, day := range d.OnlyDays {
		if weekdays[strings.ToLower(day)] == t.Weekday() {
			dayAllowed = true

			break
		}
	}

	if !dayAllowed {
		return false
	}

	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()
	start := d.StartTime.SecondOfDay()
	end := d.EndTime.SecondOfDay()

	if start > end {
		return sec >= start || sec < end
	}

	return sec >= start && sec < end
}

func (d DayTimeFilter) validate() (retErr error) {
	if d.OnlyDays == nil {
		retErr = multierror.Append(retErr, fmt.Errorf("onlyDays is required"))
	}

	for _, day := range d.OnlyDays {
		if _, ok := weekdays[strings.ToLower(day)]; !ok {
			retErr = multierror.Append(retErr, fmt.Errorf("unknown day name %q", day))
		}
	}

	if d.StartTime == nil {
		retErr = multierror.Append(retErr, fmt.Errorf("startTime is required"))
	} else if err := d.StartTime.validate(); err != nil {
		retErr = multierror.Append(retErr, multierror.Prefix(err, "startTime:"))
	}

	if d.EndTime == nil {
		retErr = multierror.Append(retErr, fmt.Errorf("endTime is required"))
	} else if err := d.EndTime.validate(); err != nil {
		retErr = multierror.Append(retErr, multierror.Prefix(err, "endTime:"))
	}

	return retErr
}

// RandomSampleFilter reduces the candidate set to a uniformly chosen subset
// sized either by an absolute count or by a ratio of the candidate count.
// When both are given, size takes precedence.
type RandomSampleFilter struct {
	Size  *int     `yaml:"size"`
	Ratio *float64 `yaml:"ratio"`
}

// SampleSize returns the number of candidates to keep out of n
func (r RandomSampleFilter) SampleSize(n int) int {
	if r.Size != nil {
		if *r.Size > n {
			return n
		}

		return *r.Size
	}

	if r.Ratio != nil {
		return int(*r.Ratio * float64(n))
	}

	return 0
}

func (r RandomSampleFilter) validate() (retErr error) {
	if r.Size == nil && r.Ratio == nil {
		retErr = multierror.Append(retErr, fmt.Errorf("either size or ratio is required"))
	}

	if r.Size != nil && *r.Size < 0 {
		retErr = multierror.Append(retErr, fmt.Errorf("size must not be negative"))
	}

	if r.Ratio != nil && (*r.Ratio < 0 || *r.Ratio > 1) {
		retErr = multierror.Append(retErr, fmt.Errorf("ratio must be between 0 and 1"))
	}

	return retErr
}

// ProbabilityFilter is a whole-batch coin flip: a single draw per evaluation
// either passes the full candidate set unchanged or empties it.
type ProbabilityFilter struct {
	ProbabilityPassAll *float64 `yaml:"probabilityPassAll"`
}

func (p ProbabilityFilter) validate() (retErr error) {
	if p.ProbabilityPassAll == nil {
		retErr = multierror.Append(retErr, fmt.Errorf("probabilityPassAll is required"))

		return retErr
	}

	if *p.ProbabilityPassAll < 0 || *p.ProbabilityPassAll > 1 {
		retErr = multierror.Append(retErr, fmt.Errorf("probabilityPassAll must be between 0 and 1"))
	}

	return retErr
}

// Filter narrows or gates the candidate set before actions run. Exactly one
// of its variants is set.
type Filter struct {
	Property     *PropertySelector
	DayTime      *DayTimeFilter
	RandomSample *RandomSampleFilter
	Probability  *ProbabilityFilter
}

// UnmarshalYAML decodes the filter clause union by inspecting its single key
func (f *Filter) UnmarshalYAML(value *yaml.Node) error {
	key, payload, err := unionKey(value)
	if err != nil {
		return err
	}

	switch key {
	case "property":
		f.Property = &PropertySelector{}

		return decodeStrict(payload, f.Property)
	case "dayTime":
		f.DayTime = &DayTimeFilter{}

		return decodeStrict(payload, f.DayTime)
	case "randomSample":
		f.RandomSample = &RandomSampleFilter{}

		return decodeStrict(payload, f.RandomSample)
	case "probability":
		f.Probability = &ProbabilityFilter{}

		return decodeStrict(payload, f.Probability)
	default:
		return fmt.Errorf("unknown filter clause %q", key)
	}
}

// Validate checks the selected clause values; allowedProperties carries the
// attribute names legal for the scenario's target kind.
func (f Filter) Validate(allowedProperties []string) error {
	switch {
	case f.Property != nil:
		return f.Property.validate(allowedProperties)
	case f.DayTime != nil:
		return f.DayTime.validate()
	case f.RandomSample != nil:
		return f.RandomSample.validate()
	case f.Probability != nil:
		return f.Probability.validate()
	}

	return nil
}

// StartAction starts a stopped machine through the infrastructure driver
type StartAction struct{}

// StopAction stops a machine through the infrastructure driver
type StopAction struct {
	Force bool `yaml:"force"`
}

// ExecuteAction runs a shell command on every surviving node over SSH
type ExecuteAction struct {
	Cmd string `yaml:"cmd"`
}

// WaitAction pauses the scenario, and everything scheduled after it, for the
// given duration
type WaitAction struct {
	Seconds float64 `yaml:"seconds"`
}

// Duration returns the pause length
func (w WaitAction) Duration() time.Duration {
	return time.Duration(w.Seconds * float64(time.Second))
}

// KillAction deletes pods, flipping an independent coin per pod
type KillAction struct {
	Probability *float64 `yaml:"probability"`
	Force       bool     `yaml:"force"`
}

// KillProbability returns the per-pod kill probability, defaulting to 1
func (k KillAction) KillProbability() float64 {
	if k.Probability == nil {
		return 1
	}

	return *k.Probability
}

// NodeAction is an effectful operation on the surviving node candidates.
// Exactly one of its variants is set.
type NodeAction struct {
	Start   *StartAction
	Stop    *StopAction
	Execute *ExecuteAction
	Wait    *WaitAction
}

// UnmarshalYAML decodes the action clause union by inspecting its single key
func (a *NodeAction) UnmarshalYAML(value *yaml.Node) error {
	key, payload, err := unionKey(value)
	if err != nil {
		return err
	}

	switch key {
	case "start":
		a.Start = &StartAction{}

		// a bare "start:" key carries no payload
		if isNull(payload) {
			return nil
		}

		return decodeStrict(payload, a.Start)
	case "stop":
		a.Stop = &StopAction{}

		return decodeStrict(payload, a.Stop)
	case "execute":
		a.Execute = &ExecuteAction{}

		return decodeStrict(payload, a.Execute)
	case "wait":
		a.Wait = &WaitAction{}

		return decodeStrict(payload, a.Wait)
	default:
		return fmt.Errorf("unknown node action clause %q", key)
	}
}

// Validate checks the selected clause values
func (a NodeAction) Validate() (retErr error) {
	switch {
	case a.Execute != nil:
		if a.Execute.Cmd == "" {
			retErr = multierror.Append(retErr, fmt.Errorf("execute cmd is required"))
		}
	case a.Wait != nil:
		if a.Wait.Seconds < 0 {
			retErr = multierror.Append(retErr, fmt.Errorf("wait seconds must not be negative"))
		}
	}

	return retErr
}

// PodAction is an effectful operation on the surviving pod candidates.
// Exactly one of its variants is set.
type PodAction struct {
	Kill *KillAction
	Wait *WaitAction
}

// UnmarshalYAML decodes the action clause union by inspecting its single key
func (a *PodAction) UnmarshalYAML(value *yaml.Node) error {
	key, payload, err := unionKey(value)
	if err != nil {
		return err
	}

	switch key {
	case "kill":
		a.Kill = &KillAction{}

		return decodeStrict(payload, a.Kill)
	case "wait":
		a.Wait = &WaitAction{}

		return decodeStrict(payload, a.Wait)
	default:
		return fmt.Errorf("unknown pod action clause %q", key)
	}
}

// Validate checks the selected clause values
func (a PodAction) Validate() (retErr error) {
	switch {
	case a.Kill != nil:
		if p := a.Kill.KillProbability(); p < 0 || p > 1 {
			retErr = multierror.Append(retErr, fmt.Errorf("kill probability must be between 0 and 1"))
		}
	case a.Wait != nil:
		if a.Wait.Seconds < 0 {
			retErr = multierror.Append(retErr, fmt.Errorf("wait seconds must not be negative"))
		}
	}

	return retErr
}
