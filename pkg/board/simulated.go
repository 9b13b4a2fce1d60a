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
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// SimulatedDriver implements lines in memory.
// A simulated line keeps its level across direction changes and
// after being released.
type SimulatedDriver struct {
	mutex  sync.Mutex
	states map[int]*simState
}

type simState struct {
	level         Level
	direction     Direction
	open          bool
	transitioning bool
	faults        map[string]error

	opens            int
	reads            int
	writes           int
	directionChanges int
}

type simLine struct {
	drv    *SimulatedDriver
	offset int
}

var _ Driver = &SimulatedDriver{}

// NewSimulatedDriver creates a driver for simulated lines.
func NewSimulatedDriver() *SimulatedDriver {
	return &SimulatedDriver{
		states: make(map[int]*simState),
	}
}

// Name of the driver
func (d *SimulatedDriver) Name() string {
	return "simulated"
}

func (d *SimulatedDriver) state(offset int) *simState {
	s, found := d.states[offset]
	if !found {
		s = &simState{faults: make(map[string]error)}
		d.states[offset] = s
	}
	return s
}

// fault returns (and clears) an injected failure.
// Must be called with the driver mutex held.
func (s *simState) fault(op string) error {
	if err, found := s.faults[op]; found {
		delete(s.faults, op)
		return err
	}
	return nil
}

// Open requests exclusive ownership of the line with given offset.
func (d *SimulatedDriver) Open(offset int, direction Direction, initial Level) (HardwareLine, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	s := d.state(offset)
	if err := s.fault("acquire"); err != nil {
		return nil, err
	}
	if s.open {
		return nil, errors.Wrapf(BusyError, "simulated line %d already requested", offset)
	}
	s.open = true
	s.opens++
	s.direction = direction
	if direction == DirectionOutput {
		s.level = initial
	}
	return &simLine{drv: d, offset: offset}, nil
}

// Close the driver.
func (d *SimulatedDriver) Close() error {
	return nil
}

// FailNext makes the next step (acquire|direction|read|write|release)
// on the given line fail with the given error.
func (d *SimulatedDriver) FailNext(offset int, op string, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.state(offset).faults[op] = err
}

// SetLevel sets the level of a line as if it were driven externally.
func (d *SimulatedDriver) SetLevel(offset int, level Level) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.state(offset).level = level
}

// Level returns the current level of a line.
func (d *SimulatedDriver) Level(offset int) Level {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.state(offset).level
}

// IsOpen returns true when the line is currently requested.
func (d *SimulatedDriver) IsOpen(offset int) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.state(offset).open
}

// Stats returns the number of opens, reads, writes and direction changes
// of a line.
func (d *SimulatedDriver) Stats(offset int) (opens, reads, writes, directionChanges int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	s := d.state(offset)
	return s.opens, s.reads, s.writes, s.directionChanges
}

// SetDirection changes the direction of the line.
// The change is split in two steps so that an unserialized caller
// interleaving I/O with a transition is detected.
func (l *simLine) SetDirection(direction Direction, initial Level) error {
	d := l.drv
	d.mutex.Lock()
	s := d.state(l.offset)
	if err := s.fault("direction"); err != nil {
		d.mutex.Unlock()
		return err
	}
	if s.transitioning {
		d.mutex.Unlock()
		return fmt.Errorf("simulated line %d: concurrent direction change", l.offset)
	}
	s.transitioning = true
	d.mutex.Unlock()

	runtime.Gosched()

	d.mutex.Lock()
	defer d.mutex.Unlock()
	s.transitioning = false
	s.direction = direction
	s.directionChanges++
	if direction == DirectionOutput {
		s.level = initial
	}
	return nil
}

// Read the current level of the line.
func (l *simLine) Read() (Level, error) {
	d := l.drv
	d.mutex.Lock()
	defer d.mutex.Unlock()
	s := d.state(l.offset)
	if err := s.fault("read"); err != nil {
		return Low, err
	}
	if s.transitioning {
		return Low, fmt.Errorf("simulated line %d: read during direction change", l.offset)
	}
	s.reads++
	return s.level, nil
}

// Write drives the given level.
func (l *simLine) Write(level Level) error {
	d := l.drv
	d.mutex.Lock()
	defer d.mutex.Unlock()
	s := d.state(l.offset)
	if err := s.fault("write"); err != nil {
		return err
	}
	if s.transitioning {
		return fmt.Errorf("simulated line %d: write during direction change", l.offset)
	}
	if s.direction != DirectionOutput {
		return errors.Wrapf(InvalidDirectionError, "simulated line %d is an input", l.offset)
	}
	s.writes++
	s.level = level
	return nil
}

// Close releases the line.
func (l *simLine) Close() error {
	d := l.drv
	d.mutex.Lock()
	defer d.mutex.Unlock()
	s := d.state(l.offset)
	if err := s.fault("release"); err != nil {
		return err
	}
	s.open = false
	return nil
}
