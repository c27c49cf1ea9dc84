// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package datadog

import (
	"log"
	"os"

	"github.com/DataDog/datadog-go/statsd"
)

const metricPrefix = "chaos.seal."

// Sink describes a Datadog sink (statsd)
type Sink struct {
	*statsd.Client
}

// New instantiate a new datadog statsd provider
func New() *Sink {
	url := os.Getenv("STATSD_URL")
	instance, err := statsd.New(url, statsd.WithTags([]string{"app:chaos-seal"}))

	if err != nil {
		log.Fatal(err)
	}

	return &Sink{Client: instance}
}

// EventWithTags creates a new event with the given title, text and tags and send it
func (d *Sink) EventWithTags(title, text string, tags []string) {
	e := &statsd.Event{
		Title: title,
		Text:  text,
		Tags:  tags,
	}
	err := d.Event(e)

	if err != nil {
		log.Printf("error sending an event to datadog: %v", err)
	}
}

func (d *Sink) metricWithStatus(name string, succeed bool, tags []string) {
	var status string
	if succeed {
		status = "succeed"
	} else {
		status = "failed"
	}

	t := []string{"status:" + status}
	t = append(t, tags...)

	_ = d.Incr(name, t, 1)
}

// MetricRound increments the rounds metric
func (d *Sink) MetricRound(tags []string) {
	_ = d.Incr(metricPrefix+"rounds", tags, 1)
}

// MetricScenarioExecuted increments the scenarios.executed metric
func (d *Sink) MetricScenarioExecuted(succeed bool, tags []string) {
	d.metricWithStatus(metricPrefix+"scenarios.executed", succeed, tags)
}

// MetricActionApplied increments the actions.applied metric
func (d *Sink) MetricActionApplied(succeed bool, tags []string) {
	d.metricWithStatus(metricPrefix+"actions.applied", succeed, tags)
}
