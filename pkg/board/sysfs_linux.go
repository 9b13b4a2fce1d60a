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
	"sync"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
)

// sysfsDriver uses the legacy /sys/class/gpio interface.
// The kernel does not report sysfs lines claimed by other users,
// so exclusive ownership is only enforced within this process.
type sysfsDriver struct {
	mutex sync.Mutex
	open  map[int]struct{}
}

type sysfsLine struct {
	drv       *sysfsDriver
	offset    int
	input     gpio.InputPin
	output    gpio.OutputPin
	lastValue bool
}

// NewSysfsDriver creates a driver that uses /sys/class/gpio.
func NewSysfsDriver() (Driver, error) {
	return &sysfsDriver{
		open: make(map[int]struct{}),
	}, nil
}

// Name of the driver
func (d *sysfsDriver) Name() string {
	return DriverSysfs
}

// Open requests exclusive ownership of the line with given offset.
func (d *sysfsDriver) Open(offset int, direction Direction, initial Level) (HardwareLine, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, found := d.open[offset]; found {
		return nil, errors.Wrapf(BusyError, "sysfs line %d already requested", offset)
	}
	l := &sysfsLine{drv: d, offset: offset}
	if err := l.SetDirection(direction, initial); err != nil {
		return nil, err
	}
	d.open[offset] = struct{}{}
	return l, nil
}

// Close the driver.
func (d *sysfsDriver) Close() error {
	return nil
}

// SetDirection changes the direction of the line.
func (l *sysfsLine) SetDirection(direction Direction, initial Level) error {
	activeLow := false
	switch direction {
	case DirectionInput:
		p, err := gpio.Input(l.offset, activeLow)
		if err != nil {
			return err
		}
		l.input = p
		l.output = nil
	case DirectionOutput:
		p, err := gpio.Output(l.offset, activeLow, initial == High)
		if err != nil {
			return err
		}
		l.input = nil
		l.output = p
		l.lastValue = initial == High
	default:
		return errors.Wrapf(InvalidArgumentError, "invalid direction %d", direction)
	}
	return nil
}

// Read the current level of the line.
// The sysfs output pin cannot be read back, so for output lines
// the level last driven is returned.
func (l *sysfsLine) Read() (Level, error) {
	if f := l.input; f != nil {
		v, err := f.Read()
		if err != nil {
			return Low, err
		}
		return LevelFromBool(v), nil
	}
	if l.output != nil {
		return LevelFromBool(l.lastValue), nil
	}
	return Low, errors.Wrapf(InvalidDirectionError, "pin %d is not configured", l.offset)
}

// Write drives the given level.
func (l *sysfsLine) Write(level Level) error {
	if f := l.output; f != nil {
		if err := f.Write(level == High); err != nil {
			return err
		}
		l.lastValue = level == High
		return nil
	}
	return errors.Wrapf(InvalidDirectionError, "pin %d does not have direction output", l.offset)
}

// Close releases the line, reverting it to input.
func (l *sysfsLine) Close() error {
	d := l.drv
	d.mutex.Lock()
	delete(d.open, l.offset)
	d.mutex.Unlock()

	if l.output != nil {
		if _, err := gpio.Input(l.offset, false); err != nil {
			return err
		}
	}
	l.input = nil
	l.output = nil
	return nil
}
