// Copyright 2026 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	// MaxOffset is the highest line offset that can be whitelisted.
	MaxOffset = 255

	logicalPrefix = "GPIO"
)

// Backend identifies what implements a line.
type Backend string

const (
	BackendHardware  Backend = "hardware"
	BackendSimulated Backend = "simulated"
)

// LineDescriptor is the canonical record of a single whitelisted line.
type LineDescriptor struct {
	// Offset of the line on the GPIO chip (BCM number on a Raspberry Pi)
	Offset int `json:"offset"`
	// Identifier in the logical numbering scheme
	Logical string `json:"logical"`
	// Identifier in the physical (header) numbering scheme.
	// Empty when the line is not routed to a known header position.
	Physical string `json:"physical,omitempty"`
	// What implements this line
	Backend Backend `json:"backend"`
	// Is reading the level of this line permitted
	CanGet bool `json:"can_get"`
	// Is driving the level of this line permitted
	CanSet bool `json:"can_set"`
}

// String returns a human readable description of the line.
func (d LineDescriptor) String() string {
	if d.Physical != "" {
		return fmt.Sprintf("%s (%s, %s)", d.Logical, d.Physical, d.Backend)
	}
	return fmt.Sprintf("%s (%s)", d.Logical, d.Backend)
}

// Whitelist holds the GPIO indices that configuration permits.
type Whitelist struct {
	// Hardware lines that may be read
	Gets []int
	// Hardware lines that may be driven
	Sets []int
	// Simulated lines that may be read
	SimGets []int
	// Simulated lines that may be driven
	SimSets []int
}

// IsEmpty returns true when no line is whitelisted at all.
func (w Whitelist) IsEmpty() bool {
	return len(w.Gets) == 0 && len(w.Sets) == 0 && len(w.SimGets) == 0 && len(w.SimSets) == 0
}

// Registry maps pin identifiers onto whitelisted lines.
// It is immutable once created and safe for concurrent use.
type Registry struct {
	byLogical  map[string]LineDescriptor
	byPhysical map[string]LineDescriptor
	lines      []LineDescriptor
}

// New builds a registry from the given whitelist.
// A hardware line takes priority over a simulated line with the same index.
func New(w Whitelist, header Header) (*Registry, error) {
	all := lo.Union(w.Gets, w.Sets, w.SimGets, w.SimSets)
	for _, offset := range all {
		if offset < 0 || offset > MaxOffset {
			return nil, errors.Wrapf(ValidationError, "GPIO index %d out of range 0-%d", offset, MaxOffset)
		}
	}
	hardware := lo.Union(w.Gets, w.Sets)
	var lines []LineDescriptor
	for _, offset := range all {
		d := LineDescriptor{
			Offset:  offset,
			Logical: strconv.Itoa(offset),
		}
		if lo.Contains(hardware, offset) {
			d.Backend = BackendHardware
			d.CanGet = lo.Contains(w.Gets, offset)
			d.CanSet = lo.Contains(w.Sets, offset)
		} else {
			d.Backend = BackendSimulated
			d.CanGet = lo.Contains(w.SimGets, offset)
			d.CanSet = lo.Contains(w.SimSets, offset)
		}
		if id, found := header.PhysicalID(offset); found {
			d.Physical = id
		}
		lines = append(lines, d)
	}
	return NewFromDescriptors(lines)
}

// NewFromDescriptors builds a registry from explicit line descriptors.
// Keys must be unique within each table and the tables must not overlap.
func NewFromDescriptors(lines []LineDescriptor) (*Registry, error) {
	r := &Registry{
		byLogical:  make(map[string]LineDescriptor),
		byPhysical: make(map[string]LineDescriptor),
	}
	for _, d := range lines {
		logical := Normalize(d.Logical)
		if logical == "" {
			return nil, errors.Wrapf(ValidationError, "line %d has no logical identifier", d.Offset)
		}
		if _, found := r.byLogical[logical]; found {
			return nil, errors.Wrapf(ValidationError, "duplicate logical identifier '%s'", d.Logical)
		}
		r.byLogical[logical] = d
		if d.Physical != "" {
			physical := Normalize(d.Physical)
			if _, found := r.byPhysical[physical]; found {
				return nil, errors.Wrapf(ValidationError, "duplicate physical identifier '%s'", d.Physical)
			}
			r.byPhysical[physical] = d
		}
		r.lines = append(r.lines, d)
	}
	for key := range r.byPhysical {
		if _, found := r.byLogical[key]; found {
			return nil, errors.Wrapf(ValidationError, "identifier '%s' is both logical and physical", key)
		}
	}
	sort.Slice(r.lines, func(i, j int) bool { return r.lines[i].Offset < r.lines[j].Offset })
	return r, nil
}

// Resolve looks the given identifier up in the logical table,
// then in the physical table.
func (r *Registry) Resolve(identifier string) (LineDescriptor, error) {
	key := Normalize(identifier)
	if d, found := r.byLogical[key]; found {
		return d, nil
	}
	if d, found := r.byPhysical[key]; found {
		return d, nil
	}
	return LineDescriptor{}, errors.Wrapf(NotFoundError, "pin '%s'", identifier)
}

// Descriptors returns all whitelisted lines, ordered by offset.
func (r *Registry) Descriptors() []LineDescriptor {
	return append([]LineDescriptor(nil), r.lines...)
}

// Len returns the number of whitelisted lines.
func (r *Registry) Len() int {
	return len(r.lines)
}

// Normalize returns the lookup key for an identifier.
// "gpio04", "GPIO4" and "4" all normalize to "4".
func Normalize(identifier string) string {
	key := strings.ToUpper(strings.TrimSpace(identifier))
	if rest := strings.TrimPrefix(key, logicalPrefix); rest != key && isDigits(rest) {
		key = rest
	}
	if isDigits(key) {
		if n, err := strconv.Atoi(key); err == nil {
			return strconv.Itoa(n)
		}
	}
	return key
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
