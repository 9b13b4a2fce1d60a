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

//go:build linux

package board

import (
	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

type cdevDriver struct {
	chip     string
	consumer string
	lines    int
}

type cdevLine struct {
	line *gpiocdev.Line
}

// NewCharacterDeviceDriver creates a driver that uses the GPIO character
// device (/dev/gpiochipN) of the given chip.
func NewCharacterDeviceDriver(chip, consumer string) (Driver, error) {
	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open GPIO chip %s", chip)
	}
	defer c.Close()
	return &cdevDriver{
		chip:     chip,
		consumer: consumer,
		lines:    c.Lines(),
	}, nil
}

// Name of the driver
func (d *cdevDriver) Name() string {
	return DriverGPIOCDev
}

// Open requests exclusive ownership of the line with given offset.
func (d *cdevDriver) Open(offset int, direction Direction, initial Level) (HardwareLine, error) {
	if offset >= d.lines {
		return nil, errors.Wrapf(InvalidArgumentError, "chip %s has %d lines", d.chip, d.lines)
	}
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(d.consumer)}
	if direction == DirectionOutput {
		opts = append(opts, gpiocdev.AsOutput(int(initial)))
	} else {
		opts = append(opts, gpiocdev.AsInput)
	}
	l, err := gpiocdev.RequestLine(d.chip, offset, opts...)
	if err != nil {
		return nil, err
	}
	return &cdevLine{line: l}, nil
}

// Close the driver.
func (d *cdevDriver) Close() error {
	return nil
}

// SetDirection changes the direction of the line.
func (l *cdevLine) SetDirection(direction Direction, initial Level) error {
	if direction == DirectionOutput {
		return l.line.Reconfigure(gpiocdev.AsOutput(int(initial)))
	}
	return l.line.Reconfigure(gpiocdev.AsInput)
}

// Read the current level of the line.
// For output lines this returns the level being driven.
func (l *cdevLine) Read() (Level, error) {
	v, err := l.line.Value()
	if err != nil {
		return Low, err
	}
	return LevelFromBool(v != 0), nil
}

// Write drives the given level.
func (l *cdevLine) Write(level Level) error {
	return l.line.SetValue(int(level))
}

// Close releases the line, reverting it to input first.
func (l *cdevLine) Close() error {
	var ae aerr.AggregateError
	if err := l.line.Reconfigure(gpiocdev.AsInput); err != nil {
		ae.Add(errors.Wrap(err, "failed to revert line to input"))
	}
	if err := l.line.Close(); err != nil {
		ae.Add(errors.Wrap(err, "failed to release line"))
	}
	return ae.AsError()
}
