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

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// rpioDriver accesses the Raspberry Pi GPIO registers directly
// through /dev/gpiomem.
type rpioDriver struct {
	mutex sync.Mutex
	open  map[int]struct{}
}

type rpioLine struct {
	drv    *rpioDriver
	offset int
	pin    rpio.Pin
}

// NewRPIODriver maps the GPIO registers and returns a driver that uses them.
func NewRPIODriver() (Driver, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "failed to open GPIO memory")
	}
	return &rpioDriver{
		open: make(map[int]struct{}),
	}, nil
}

// Name of the driver
func (d *rpioDriver) Name() string {
	return DriverRPIO
}

// Open requests exclusive ownership of the line with given offset.
func (d *rpioDriver) Open(offset int, direction Direction, initial Level) (HardwareLine, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, found := d.open[offset]; found {
		return nil, errors.Wrapf(BusyError, "rpio line %d already requested", offset)
	}
	l := &rpioLine{drv: d, offset: offset, pin: rpio.Pin(offset)}
	if err := l.SetDirection(direction, initial); err != nil {
		return nil, err
	}
	d.open[offset] = struct{}{}
	return l, nil
}

// Close unmaps the GPIO registers.
func (d *rpioDriver) Close() error {
	return rpio.Close()
}

// SetDirection changes the direction of the line.
func (l *rpioLine) SetDirection(direction Direction, initial Level) error {
	if direction == DirectionOutput {
		l.pin.Write(rpioState(initial))
		l.pin.Output()
		return nil
	}
	l.pin.Input()
	return nil
}

// Read the current level of the line.
func (l *rpioLine) Read() (Level, error) {
	return LevelFromBool(l.pin.Read() == rpio.High), nil
}

// Write drives the given level.
func (l *rpioLine) Write(level Level) error {
	l.pin.Write(rpioState(level))
	return nil
}

// Close releases the line, reverting it to input.
func (l *rpioLine) Close() error {
	d := l.drv
	d.mutex.Lock()
	delete(d.open, l.offset)
	d.mutex.Unlock()

	l.pin.Input()
	return nil
}

func rpioState(level Level) rpio.State {
	if level == High {
		return rpio.High
	}
	return rpio.Low
}
