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

package board

import (
	"strings"

	"github.com/pkg/errors"
)

// Level of a line.
type Level byte

const (
	Low Level = iota
	High
)

// String returns "low" or "high".
func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// ParseLevel parses "high" or "low".
func ParseLevel(s string) (Level, error) {
	switch s {
	case "high":
		return High, nil
	case "low":
		return Low, nil
	default:
		return Low, errors.Wrapf(InvalidLevelError, "'%s'", s)
	}
}

// LevelFromBool converts a logical value into a Level.
func LevelFromBool(v bool) Level {
	if v {
		return High
	}
	return Low
}

// Direction of a line.
type Direction byte

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// String returns "input" or "output".
func (d Direction) String() string {
	if d == DirectionOutput {
		return "output"
	}
	return "input"
}

// Driver gives access to the lines of a GPIO chip through a
// specific hardware library.
type Driver interface {
	// Name of the driver
	Name() string
	// Open requests exclusive ownership of the line with given offset,
	// configured in the given direction.
	// For output lines, initial is the level driven right away.
	Open(offset int, direction Direction, initial Level) (HardwareLine, error)
	// Close releases all resources held by the driver itself.
	Close() error
}

// HardwareLine is a single line owned through a Driver.
type HardwareLine interface {
	// Change the direction of the line.
	// For output, initial is the level driven right away.
	SetDirection(direction Direction, initial Level) error
	// Read the current level of the line.
	Read() (Level, error)
	// Drive the given level. Only valid for output lines.
	Write(level Level) error
	// Release ownership of the line.
	Close() error
}

// AcquirePolicy determines when lines are acquired.
type AcquirePolicy string

const (
	// Acquire all whitelisted lines at startup.
	AcquireEager AcquirePolicy = "eager"
	// Acquire lines on first use.
	AcquireLazy AcquirePolicy = "lazy"
)

// ParseAcquirePolicy parses "eager" or "lazy".
func ParseAcquirePolicy(s string) (AcquirePolicy, error) {
	switch p := AcquirePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case AcquireEager, AcquireLazy:
		return p, nil
	default:
		return AcquireEager, errors.Wrapf(InvalidArgumentError, "unknown acquire policy '%s' (eager|lazy)", s)
	}
}
