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
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphDriver uses the periph.io host drivers, addressing lines by
// their GPIO name.
type periphDriver struct {
	mutex sync.Mutex
	open  map[int]struct{}
}

type periphLine struct {
	drv    *periphDriver
	offset int
	pin    gpio.PinIO
}

// NewPeriphDriver initializes periph.io host state and returns a driver
// that uses it.
func NewPeriphDriver() (Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host")
	}
	return &periphDriver{
		open: make(map[int]struct{}),
	}, nil
}

// Name of the driver
func (d *periphDriver) Name() string {
	return DriverPeriph
}

// Open requests exclusive ownership of the line with given offset.
func (d *periphDriver) Open(offset int, direction Direction, initial Level) (HardwareLine, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, found := d.open[offset]; found {
		return nil, errors.Wrapf(BusyError, "periph line %d already requested", offset)
	}
	name := fmt.Sprintf("GPIO%d", offset)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Wrapf(InvalidArgumentError, "no pin named %s", name)
	}
	l := &periphLine{drv: d, offset: offset, pin: p}
	if err := l.SetDirection(direction, initial); err != nil {
		return nil, err
	}
	d.open[offset] = struct{}{}
	return l, nil
}

// Close the driver.
func (d *periphDriver) Close() error {
	return nil
}

// SetDirection changes the direction of the line.
func (l *periphLine) SetDirection(direction Direction, initial Level) error {
	if direction == DirectionOutput {
		return l.pin.Out(gpio.Level(initial == High))
	}
	return l.pin.In(gpio.PullNoChange, gpio.NoEdge)
}

// Read the current level of the line.
func (l *periphLine) Read() (Level, error) {
	return LevelFromBool(l.pin.Read() == gpio.High), nil
}

// Write drives the given level.
func (l *periphLine) Write(level Level) error {
	return l.pin.Out(gpio.Level(level == High))
}

// Close releases the line, reverting it to input.
func (l *periphLine) Close() error {
	d := l.drv
	d.mutex.Lock()
	delete(d.open, l.offset)
	d.mutex.Unlock()

	if err := l.pin.Halt(); err != nil {
		return err
	}
	return l.pin.In(gpio.PullNoChange, gpio.NoEdge)
}
