package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Access describes which directions a Group supports.
type Access uint8

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	default:
		return "unknown"
	}
}

// CanRead reports whether the group accepts reference (read) commands.
func (a Access) CanRead() bool { return a != WriteOnly }

// CanWrite reports whether the group accepts operation (write) commands.
func (a Access) CanWrite() bool { return a != ReadOnly }

// Group is one named category of device property, such as power or input.
type Group struct {
	// Name is the symbolic group name used in commands.
	Name string
	// Code is the binary command code sent after the frame header, e.g. "PW".
	Code []byte
	// VerifyWrite controls whether a write waits for the projector's ACK.
	VerifyWrite bool

	access    Access
	writeVals map[string][]byte
	readVals  map[string][]byte
	readInv   map[string]string
}

// GroupOption configures a Group built by NewGroup.
type GroupOption func(*Group)

// WithValues sets the values used for both writing and decoding reads.
func WithValues(vals map[string]string) GroupOption {
	return func(g *Group) {
		g.writeVals = toBytesMap(vals)
		g.readVals = toBytesMap(vals)
	}
}

// WithWriteValues sets the values accepted by write commands.
func WithWriteValues(vals map[string]string) GroupOption {
	return func(g *Group) { g.writeVals = toBytesMap(vals) }
}

// WithReadValues sets the values used to decode read responses.
func WithReadValues(vals map[string]string) GroupOption {
	return func(g *Group) { g.readVals = toBytesMap(vals) }
}

// WithAccess restricts the group to one direction.
func WithAccess(a Access) GroupOption {
	return func(g *Group) { g.access = a }
}

// WithoutWriteVerify makes writes return without waiting for the ACK.
func WithoutWriteVerify() GroupOption {
	return func(g *Group) { g.VerifyWrite = false }
}

// NewGroup creates a command group named name with the binary code code.
func NewGroup(name string, code string, opts ...GroupOption) (*Group, error) {
	g := &Group{
		Name:        name,
		Code:        []byte(code),
		VerifyWrite: true,
		access:      ReadWrite,
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := g.validate(); err != nil {
		return nil, err
	}

	if g.access == WriteOnly {
		g.readVals = nil
	}
	if g.access == ReadOnly {
		g.writeVals = nil
	}

	g.readInv = make(map[string]string, len(g.readVals))
	for k, v := range g.readVals {
		g.readInv[string(v)] = k
	}

	return g, nil
}

func (g *Group) validate() error {
	switch {
	case g.Name == "":
		return errors.New("command: group name is empty")
	case strings.Contains(g.Name, Separator):
		return fmt.Errorf("command: group name %q must not contain %q", g.Name, Separator)
	case len(g.Code) < 2:
		return fmt.Errorf("command: group %q code %q is shorter than 2 bytes", g.Name, g.Code)
	}

	seen := make(map[string]string, len(g.readVals))
	for k, v := range g.readVals {
		if other, ok := seen[string(v)]; ok {
			return fmt.Errorf("command: group %q read values %q and %q share code %q", g.Name, k, other, v)
		}
		seen[string(v)] = k
	}

	for k := range g.writeVals {
		if k == "" {
			return fmt.Errorf("command: group %q has an empty write value name", g.Name)
		}
	}

	return nil
}

// Access returns the directions supported by the group.
func (g *Group) Access() Access { return g.access }

// ReplyCode returns the two-byte code echoed by the projector in ACK and
// response frames for this group.
func (g *Group) ReplyCode() []byte { return g.Code[:2] }

// WriteValue returns the payload for the symbolic write value.
func (g *Group) WriteValue(value string) ([]byte, bool) {
	v, ok := g.writeVals[value]
	return v, ok
}

// WriteValues returns the sorted symbolic write values.
func (g *Group) WriteValues() []string { return sortedKeys(g.writeVals) }

// ReadValues returns the sorted symbolic read values.
func (g *Group) ReadValues() []string { return sortedKeys(g.readVals) }

// HasWriteValues reports whether writes to the group require a value.
func (g *Group) HasWriteValues() bool { return len(g.writeVals) > 0 }

// Decode maps response data back to its symbolic value.
//
// Groups without read values (MAC address, model) return the data as ASCII
// with mapped set to true. For other groups, data that is not in the table is
// returned as ASCII with mapped set to false.
func (g *Group) Decode(data []byte) (value string, mapped bool) {
	if len(g.readVals) == 0 {
		return string(data), true
	}
	if v, ok := g.readInv[string(data)]; ok {
		return v, true
	}

	return string(data), false
}

func toBytesMap(vals map[string]string) map[string][]byte {
	m := make(map[string][]byte, len(vals))
	for k, v := range vals {
		m[k] = []byte(v)
	}

	return m
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
