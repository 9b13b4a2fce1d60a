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
	"context"
	"fmt"
	"sync"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hypibole/hypibole/pkg/registry"
)

// Dependencies of a Board.
type Dependencies struct {
	Log zerolog.Logger
	// Driver used for hardware lines (may be nil if none are whitelisted)
	Hardware Driver
	// Driver used for simulated lines (may be nil if none are whitelisted)
	Simulated Driver
}

// Board owns all acquired lines.
// Lines are only accessed through Execute, which serializes
// all operations on the same line.
type Board struct {
	log     zerolog.Logger
	drivers map[registry.Backend]Driver

	mutex  sync.Mutex
	lines  map[int]*Line
	closed bool
}

// Line is an acquired GPIO line.
// Its methods may only be called from within an operation passed to
// Board.Execute, which holds the line's lock.
type Line struct {
	desc registry.LineDescriptor
	lock chan struct{}

	hw             HardwareLine
	direction      Direction
	directionKnown bool
	level          Level
	levelKnown     bool
}

// New creates a board using the given drivers.
func New(deps Dependencies) *Board {
	b := &Board{
		log:     deps.Log.With().Str("component", "board").Logger(),
		drivers: make(map[registry.Backend]Driver),
		lines:   make(map[int]*Line),
	}
	if deps.Hardware != nil {
		b.drivers[registry.BackendHardware] = deps.Hardware
	}
	if deps.Simulated != nil {
		b.drivers[registry.BackendSimulated] = deps.Simulated
	}
	return b
}

// line returns the entry for the given descriptor, creating it if needed.
// The entry is not acquired yet.
func (b *Board) line(desc registry.LineDescriptor) (*Line, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return nil, maskAny(ClosedError)
	}
	if l, found := b.lines[desc.Offset]; found {
		if l.desc.Backend != desc.Backend {
			return nil, errors.Wrapf(InvalidArgumentError, "line %d already acquired with backend %s", desc.Offset, l.desc.Backend)
		}
		return l, nil
	}
	l := &Line{
		desc: desc,
		lock: make(chan struct{}, 1),
	}
	b.lines[desc.Offset] = l
	return l, nil
}

// Acquire obtains ownership of the line for the given descriptor.
// Calling it again for the same line returns the same Line without
// touching the hardware again.
func (b *Board) Acquire(ctx context.Context, desc registry.LineDescriptor, direction Direction, initial Level) (*Line, error) {
	l, err := b.line(desc)
	if err != nil {
		return nil, err
	}
	if err := l.acquireLock(ctx); err != nil {
		return nil, err
	}
	defer l.releaseLock()
	if err := b.open(l, direction, initial); err != nil {
		return nil, err
	}
	return l, nil
}

// AcquireAll acquires all given lines concurrently.
// Lines that may be driven start as output low, others as input.
func (b *Board) AcquireAll(ctx context.Context, descs []registry.LineDescriptor) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, desc := range descs {
		desc := desc
		g.Go(func() error {
			direction := DirectionInput
			if desc.CanSet {
				direction = DirectionOutput
			}
			if _, err := b.Acquire(ctx, desc, direction, Low); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	b.log.Info().Int("lines", len(descs)).Msg("Acquired all lines")
	return nil
}

// Execute runs the given operation while holding the lock of the line
// for the given descriptor. The line is acquired (as input) first if needed.
// Waiting for the lock stops when the context is canceled, but once the
// operation has started it always runs to completion.
func (b *Board) Execute(ctx context.Context, desc registry.LineDescriptor, op func(l *Line) error) (result error) {
	l, err := b.line(desc)
	if err != nil {
		return err
	}
	if err := l.acquireLock(ctx); err != nil {
		return err
	}
	defer l.releaseLock()

	if err := b.open(l, DirectionInput, Low); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Int("line", desc.Offset).
				Interface("panic", r).
				Msg("Recovered from panic in line operation")
			l.invalidate()
			result = newLineError("execute", desc.Offset, fmt.Errorf("%v", r))
		}
	}()
	return op(l)
}

// open acquires the hardware line if that has not happened yet.
// Must be called with the line lock held.
func (b *Board) open(l *Line, direction Direction, initial Level) error {
	if l.hw != nil {
		return nil
	}
	b.mutex.Lock()
	closed := b.closed
	drv := b.drivers[l.desc.Backend]
	b.mutex.Unlock()
	if closed {
		return maskAny(ClosedError)
	}
	if drv == nil {
		return errors.Wrapf(InvalidArgumentError, "no driver for %s lines", l.desc.Backend)
	}
	hw, err := b.openDriverLine(drv, l.desc.Offset, direction, initial)
	if err != nil {
		hardwareErrorsTotal.WithLabelValues(l.desc.Logical, "acquire").Inc()
		return newLineError("acquire", l.desc.Offset, err)
	}
	l.hw = hw
	l.direction = direction
	l.directionKnown = true
	if direction == DirectionOutput {
		l.level = initial
		l.levelKnown = true
	}
	acquireTotal.WithLabelValues(string(l.desc.Backend)).Inc()
	acquiredLinesGauge.Inc()
	b.log.Debug().
		Str("line", l.desc.String()).
		Str("direction", direction.String()).
		Str("driver", drv.Name()).
		Msg("Acquired line")
	return nil
}

// openDriverLine requests a line from the given driver.
// A panic in the driver is returned as an error.
func (b *Board) openDriverLine(drv Driver, offset int, direction Direction, initial Level) (hw HardwareLine, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Int("line", offset).
				Interface("panic", r).
				Msg("Recovered from panic in driver open")
			hw = nil
			err = fmt.Errorf("%v", r)
		}
	}()
	return drv.Open(offset, direction, initial)
}

// Close releases all lines and the drivers.
// Operations that are in progress complete first.
func (b *Board) Close() error {
	b.mutex.Lock()
	if b.closed {
		b.mutex.Unlock()
		return nil
	}
	b.closed = true
	lines := b.lines
	b.lines = make(map[int]*Line)
	b.mutex.Unlock()

	var ae aerr.AggregateError
	for _, l := range lines {
		l.acquireLock(context.Background())
		if l.hw != nil {
			if err := l.hw.Close(); err != nil {
				ae.Add(newLineError("release", l.desc.Offset, err))
			} else {
				b.log.Debug().Str("line", l.desc.String()).Msg("Released line")
			}
			l.hw = nil
			acquiredLinesGauge.Dec()
		}
		l.releaseLock()
	}
	for _, drv := range b.drivers {
		if err := drv.Close(); err != nil {
			ae.Add(errors.Wrapf(err, "failed to close driver %s", drv.Name()))
		}
	}
	return ae.AsError()
}

func (l *Line) acquireLock(ctx context.Context) error {
	select {
	case l.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return maskAny(ctx.Err())
	}
}

func (l *Line) releaseLock() {
	<-l.lock
}

// invalidate marks direction and level of the line as unknown.
func (l *Line) invalidate() {
	l.directionKnown = false
	l.levelKnown = false
}

// Descriptor of the line.
func (l *Line) Descriptor() registry.LineDescriptor {
	return l.desc
}

// Direction returns the current direction of the line.
// Returns false when the direction is unknown after a failed hardware step.
func (l *Line) Direction() (Direction, bool) {
	return l.direction, l.directionKnown
}

// SetDirection changes the direction of the line.
// For output, initial is driven right away.
// On failure, the direction of the line becomes unknown.
func (l *Line) SetDirection(direction Direction, initial Level) error {
	if err := l.hw.SetDirection(direction, initial); err != nil {
		l.invalidate()
		hardwareErrorsTotal.WithLabelValues(l.desc.Logical, "direction").Inc()
		return newLineError("direction", l.desc.Offset, err)
	}
	directionChangesTotal.WithLabelValues(l.desc.Logical, direction.String()).Inc()
	l.direction = direction
	l.directionKnown = true
	if direction == DirectionOutput {
		l.level = initial
		l.levelKnown = true
	} else {
		l.levelKnown = false
	}
	return nil
}

// EnsureDirection changes the direction of the line if it is not
// known to be the given direction already.
func (l *Line) EnsureDirection(direction Direction, initial Level) error {
	if current, known := l.Direction(); known && current == direction {
		return nil
	}
	return l.SetDirection(direction, initial)
}

// Read the current level of the line.
func (l *Line) Read() (Level, error) {
	level, err := l.hw.Read()
	if err != nil {
		hardwareErrorsTotal.WithLabelValues(l.desc.Logical, "read").Inc()
		return Low, newLineError("read", l.desc.Offset, err)
	}
	return level, nil
}

// Write drives the given level on an output line.
// On failure the level (and direction) of the line becomes unknown.
func (l *Line) Write(level Level) error {
	if current, known := l.Direction(); !known || current != DirectionOutput {
		return errors.Wrapf(InvalidDirectionError, "line %d is not configured as output", l.desc.Offset)
	}
	if err := l.hw.Write(level); err != nil {
		l.invalidate()
		hardwareErrorsTotal.WithLabelValues(l.desc.Logical, "write").Inc()
		return newLineError("write", l.desc.Offset, err)
	}
	l.level = level
	l.levelKnown = true
	return nil
}

// LastWritten returns the level most recently driven on the line.
// Returns false when the line is not an output or its level is unknown.
func (l *Line) LastWritten() (Level, bool) {
	if !l.directionKnown || l.direction != DirectionOutput {
		return Low, false
	}
	return l.level, l.levelKnown
}
