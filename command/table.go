package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Separator splits a symbolic command into group name and write value.
const Separator = "-"

var (
	// ErrUnknownCommand indicates that the group, or the value within a
	// known group, is not in the table.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrInvalidDirection indicates a value on a read-only group, or a
	// missing value on a write-only group that requires one.
	ErrInvalidDirection = errors.New("command: invalid direction")
)

// Direction is the kind of frame a Request is sent as.
type Direction uint8

const (
	// Read is a reference command; the projector answers with ACK then a response.
	Read Direction = iota
	// Write is an operation command; the projector answers with ACK.
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "write"
	}

	return "read"
}

// Request is a parsed symbolic command, ready to be framed.
type Request struct {
	// Symbolic is the command as given by the caller.
	Symbolic string
	// Group is the command group addressed.
	Group *Group
	// Direction is Read or Write.
	Direction Direction
	// Value is the symbolic write value, empty for reads and value-less writes.
	Value string
	// Payload is the binary value appended after the group code, empty for reads.
	Payload []byte
}

// Table is an immutable set of command groups keyed by name.
type Table struct {
	groups map[string]*Group
	names  []string
}

// NewTable builds a table from groups, rejecting duplicate names.
func NewTable(groups ...*Group) (*Table, error) {
	t := &Table{groups: make(map[string]*Group, len(groups))}
	for _, g := range groups {
		if g == nil {
			return nil, errors.New("command: nil group")
		}
		if _, ok := t.groups[g.Name]; ok {
			return nil, fmt.Errorf("command: duplicate group %q", g.Name)
		}
		t.groups[g.Name] = g
		t.names = append(t.names, g.Name)
	}
	slices.Sort(t.names)

	return t, nil
}

// Lookup returns the group named name.
func (t *Table) Lookup(name string) (*Group, bool) {
	g, ok := t.groups[name]
	return g, ok
}

// Names returns the sorted group names.
func (t *Table) Names() []string {
	return slices.Clone(t.names)
}

// Groups returns the groups sorted by name.
func (t *Table) Groups() []*Group {
	groups := make([]*Group, 0, len(t.names))
	for _, name := range t.names {
		groups = append(groups, t.groups[name])
	}

	return groups
}

// MatchCode returns the group whose code is the longest prefix of body.
// The emulator uses it to route incoming frames.
func (t *Table) MatchCode(body []byte) (*Group, bool) {
	var best *Group
	for _, g := range t.groups {
		if len(body) >= len(g.Code) && string(body[:len(g.Code)]) == string(g.Code) {
			if best == nil || len(g.Code) > len(best.Code) {
				best = g
			}
		}
	}

	return best, best != nil
}

// Parse resolves a symbolic command such as "power-on" or "signal" into a
// Request. The string is split on the first Separator.
func (t *Table) Parse(symbolic string) (Request, error) {
	symbolic = strings.TrimSpace(symbolic)
	name, value, hasValue := strings.Cut(symbolic, Separator)

	g, ok := t.groups[name]
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownCommand, symbolic)
	}

	req := Request{Symbolic: symbolic, Group: g}

	if hasValue {
		if !g.access.CanWrite() {
			return Request{}, fmt.Errorf("%w: group %q is %s and takes no value", ErrInvalidDirection, name, g.access)
		}
		payload, ok := g.WriteValue(value)
		if !ok {
			return Request{}, fmt.Errorf("%w: group %q has no value %q, must be one of %v",
				ErrUnknownCommand, name, value, g.WriteValues())
		}
		req.Direction = Write
		req.Value = value
		req.Payload = payload

		return req, nil
	}

	if g.access == WriteOnly {
		if g.HasWriteValues() {
			return Request{}, fmt.Errorf("%w: group %q is write-only and needs one of %v",
				ErrInvalidDirection, name, g.WriteValues())
		}
		req.Direction = Write

		return req, nil
	}

	req.Direction = Read

	return req, nil
}
