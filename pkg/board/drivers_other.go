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

//go:build !linux

package board

import (
	"github.com/pkg/errors"
)

// NewCharacterDeviceDriver is only available on Linux.
func NewCharacterDeviceDriver(chip, consumer string) (Driver, error) {
	return nil, errors.Wrap(InvalidArgumentError, "gpiocdev driver requires Linux")
}

// NewSysfsDriver is only available on Linux.
func NewSysfsDriver() (Driver, error) {
	return nil, errors.Wrap(InvalidArgumentError, "sysfs driver requires Linux")
}

// NewRPIODriver is only available on Linux.
func NewRPIODriver() (Driver, error) {
	return nil, errors.Wrap(InvalidArgumentError, "rpio driver requires Linux")
}
