// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package node

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const childrenSectionSuffix = ":children"

// Inventory is the live snapshot of cluster machines consulted during
// matching. Sync refreshes the snapshot between rounds; it is never called
// while a round is in flight.
type Inventory interface {
	Nodes() []*Node
	Sync() error
}

// HostRecord is one parsed inventory line: an address plus arbitrary
// key/value attributes.
type HostRecord struct {
	Addr  string
	Attrs map[string]string
}

// ParseInventoryFile reads an Ansible-style ini inventory file and returns a
// mapping from lowercase section name to its host records. Sections named
// "<group>:children" list other group names; their records are flattened into
// the parent group (first level only).
func ParseInventoryFile(path string) (map[string][]HostRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening inventory file: %w", err)
	}

	defer f.Close()

	groups := map[string][]HostRecord{}
	section := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			groups[section] = []HostRecord{}

			continue
		}

		if section == "" {
			return nil, fmt.Errorf("inventory line %q appears before any section header", line)
		}

		record := HostRecord{Attrs: map[string]string{}}

		for i, piece := range strings.Fields(line) {
			if i == 0 {
				record.Addr = piece

				continue
			}

			k, v, found := strings.Cut(piece, "=")
			if !found {
				return nil, fmt.Errorf("malformed inventory attribute %q on line %q", piece, line)
			}

			record.Attrs[k] = v
		}

		groups[section] = append(groups[section], record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading inventory file: %w", err)
	}

	// flatten first-level group inclusions; section keys are lowercased so
	// references are matched case-insensitively
	for section, records := range groups {
		parent, ok := strings.CutSuffix(section, childrenSectionSuffix)
		if !ok {
			continue
		}

		for _, record := range records {
			child, ok := groups[strings.ToLower(record.Addr)]
			if !ok {
				return nil, fmt.Errorf("children section %q references unknown group %q", section, record.Addr)
			}

			groups[parent] = append(groups[parent], child...)
		}

		delete(groups, section)
	}

	return groups, nil
}

// StaticInventory builds node snapshots from an inventory file; Sync re-reads
// the file so membership changes are picked up between rounds.
type StaticInventory struct {
	path        string
	defaultUser string
	log         *zap.SugaredLogger
	nodes       []*Node
}

// NewStaticInventory parses the given inventory file and returns an inventory
// over its hosts. Hosts missing an sshuser attribute fall back to defaultUser.
func NewStaticInventory(path, defaultUser string, log *zap.SugaredLogger) (*StaticInventory, error) {
	inv := &StaticInventory{
		path:        path,
		defaultUser: defaultUser,
		log:         log,
	}

	if err := inv.Sync(); err != nil {
		return nil, err
	}

	return inv, nil
}

// Nodes returns the current node snapshot
func (i *StaticInventory) Nodes() []*Node {
	return i.nodes
}

// Sync re-reads the inventory file and rebuilds the node snapshot
func (i *StaticInventory) Sync() error {
	groups, err := ParseInventoryFile(i.path)
	if err != nil {
		return err
	}

	sections := make([]string, 0, len(groups))
	for section := range groups {
		sections = append(sections, section)
	}

	// deterministic node ordering, sections are map keys
	sort.Strings(sections)

	nodes := []*Node{}

	for _, section := range sections {
		for _, record := range groups[section] {
			n := &Node{
				Name:    record.Addr,
				IP:      record.Addr,
				SSHUser: i.defaultUser,
				Group:   section,
				State:   StateUnknown,
			}

			if name, ok := record.Attrs["name"]; ok {
				n.Name = name
			}

			if ip, ok := record.Attrs["ip"]; ok {
				n.IP = ip
			}

			if user, ok := record.Attrs["sshuser"]; ok {
				n.SSHUser = user
			}

			if pass, ok := record.Attrs["sshpass"]; ok {
				n.SSHPass = pass
			}

			if az, ok := record.Attrs["az"]; ok {
				n.AZ = az
			}

			if state, ok := record.Attrs["state"]; ok {
				n.State = State(state)
			}

			nodes = append(nodes, n)
		}
	}

	i.log.Debugw("inventory synced", "path", i.path, "nodes", len(nodes))
	i.nodes = nodes

	return nil
}
