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

const (
	DriverGPIOCDev  = "gpiocdev"
	DriverSysfs     = "sysfs"
	DriverPeriph    = "periph"
	DriverRPIO      = "rpio"
	DriverSimulated = "simulated"

	// DefaultChip is the GPIO chip used by the gpiocdev driver.
	DefaultChip = "gpiochip0"
	// DefaultConsumer is the consumer label of requested lines.
	DefaultConsumer = "hypibole"
)

// DriverConfig holds the settings of a hardware driver.
type DriverConfig struct {
	// Name of the driver (gpiocdev|sysfs|periph|rpio|simulated)
	Name string
	// GPIO chip (gpiocdev only)
	Chip string
	// Consumer label (gpiocdev only)
	Consumer string
}

// NewDriver creates the driver with given configuration.
func NewDriver(cfg DriverConfig) (Driver, error) {
	chip := cfg.Chip
	if chip == "" {
		chip = DefaultChip
	}
	consumer := cfg.Consumer
	if consumer == "" {
		consumer = DefaultConsumer
	}
	switch strings.ToLower(cfg.Name) {
	case DriverGPIOCDev:
		return NewCharacterDeviceDriver(chip, consumer)
	case DriverSysfs:
		return NewSysfsDriver()
	case DriverPeriph:
		return NewPeriphDriver()
	case DriverRPIO:
		return NewRPIODriver()
	case DriverSimulated:
		return NewSimulatedDriver(), nil
	default:
		return nil, errors.Wrapf(InvalidArgumentError, "unknown driver '%s' (%s)", cfg.Name, strings.Join(DriverNames(), "|"))
	}
}

// DriverNames returns the names of all supported drivers.
func DriverNames() []string {
	return []string{DriverGPIOCDev, DriverSysfs, DriverPeriph, DriverRPIO, DriverSimulated}
}
