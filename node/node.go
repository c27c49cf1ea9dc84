// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package node holds the cluster machine model consumed by node scenarios:
// the node snapshot itself, the inventory it is listed in and the
// infrastructure driver used to start and stop it.
package node

import "fmt"

// State is the machine lifecycle state as last observed by the inventory
type State string

const (
	StateUp      State = "up"
	StateDown    State = "down"
	StateUnknown State = "unknown"
)

// Node is a snapshot of a single cluster machine. Scenarios only ever read
// snapshots; the inventory owns the data and refreshes it between rounds.
type Node struct {
	Name    string
	IP      string
	SSHUser string
	SSHPass string
	Group   string
	AZ      string
	State   State
}

// TargetID returns the node identity used for candidate de-duplication and
// for keying execution results
func (n *Node) TargetID() string {
	return n.IP
}

// TargetProperty returns the named node attribute for property clauses
func (n *Node) TargetProperty(name string) (string, bool) {
	switch name {
	case "name":
		return n.Name, true
	case "ip":
		return n.IP, true
	case "group":
		return n.Group, true
	case "az":
		return n.AZ, true
	case "state":
		return string(n.State), true
	}

	return "", false
}

func (n *Node) String() string {
	return fmt.Sprintf("%s (%s)", n.Name, n.IP)
}
