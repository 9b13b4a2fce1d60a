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
	"strings"

	"github.com/pkg/errors"
)

// Header describes a pin header of a board, used to derive the
// physical numbering scheme of lines.
type Header struct {
	// Name of the header, used as prefix of physical identifiers.
	Name string
	// Maps GPIO line offset to header position.
	Positions map[int]int
}

// PhysicalID returns the physical identifier of the given line offset.
// Returns false if the line is not routed to this header.
func (h Header) PhysicalID(offset int) (string, bool) {
	if h.Name == "" {
		return "", false
	}
	pos, found := h.Positions[offset]
	if !found {
		return "", false
	}
	return fmt.Sprintf("%s-%d", h.Name, pos), true
}

var (
	// NoHeader disables the physical numbering scheme.
	NoHeader = Header{}

	// RaspberryPiJ8 is the 40 pin header of Raspberry Pi models B+ and later.
	RaspberryPiJ8 = Header{
		Name: "J8",
		Positions: map[int]int{
			2: 3, 3: 5, 4: 7, 14: 8, 15: 10, 17: 11, 18: 12, 27: 13,
			22: 15, 23: 16, 24: 18, 10: 19, 9: 21, 25: 22, 11: 23, 8: 24,
			7: 26, 0: 27, 1: 28, 5: 29, 6: 31, 12: 32, 13: 33, 19: 35,
			16: 36, 26: 37, 20: 38, 21: 40,
		},
	}
)

// HeaderByName returns the header with given name (none|rpi-j8).
func HeaderByName(name string) (Header, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return NoHeader, nil
	case "rpi-j8", "j8":
		return RaspberryPiJ8, nil
	default:
		return NoHeader, errors.Wrapf(ValidationError, "unknown header '%s' (none|rpi-j8)", name)
	}
}
