// Package machine resolves machine identifiers to travel envelopes.
package machine

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/mastercactapus/cncwarmup/ramp"
	"gopkg.in/yaml.v3"
)

// Table maps a machine identifier to its profile.
type Table map[string]ramp.MachineProfile

// UnknownMachineError is returned by Lookup for an identifier not in the table.
type UnknownMachineError struct {
	ID string
}

func (e *UnknownMachineError) Error() string {
	return fmt.Sprintf("unknown machine %q", e.ID)
}

// Default is the built-in shop table.
func Default() Table {
	return Table{
		"1": {XTravel: 762, YTravel: 508},
		"2": {XTravel: 1016, YTravel: 660},
		"3": {XTravel: 1270, YTravel: 508},
	}
}

func (t Table) Lookup(id string) (ramp.MachineProfile, error) {
	m, ok := t[id]
	if !ok {
		return ramp.MachineProfile{}, &UnknownMachineError{ID: id}
	}
	if m.Name == "" {
		m.Name = "Machine " + id
	}
	return m, nil
}

// IDs returns the identifiers in the table, numeric ones first in numeric
// order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Merge returns a copy of t with the entries of o added or replaced.
func (t Table) Merge(o Table) Table {
	res := make(Table, len(t)+len(o))
	for id, m := range t {
		res[id] = m
	}
	for id, m := range o {
		res[id] = m
	}
	return res
}

type file struct {
	Machines Table `yaml:"machines"`
}

// Parse reads a YAML machine table:
//
//	machines:
//	  "4": {name: VF-4, x: 1270, y: 508}
func Parse(data []byte) (Table, error) {
	var f file
	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, err
	}
	for id, m := range f.Machines {
		if !(m.XTravel > 0) || !(m.YTravel > 0) {
			return nil, fmt.Errorf("machine %q: travel must be positive, got X%g Y%g", id, m.XTravel, m.YTravel)
		}
	}
	return f.Machines, nil
}

// LoadFile reads a YAML machine table and merges it over the built-in one.
// An empty path returns the built-in table.
func LoadFile(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Default().Merge(t), nil
}
