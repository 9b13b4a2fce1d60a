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

package environment

import (
	"path/filepath"
	"strings"

	"github.com/hypibole/hypibole/pkg/board"
)

const (
	gpiomemPath     = "/dev/gpiomem"
	sysfsExportPath = "/sys/class/gpio/export"
)

// probe describes what is available on the host.
type probe struct {
	// Returns true when the given path can be read and written
	accessible func(path string) bool
	// Machine hardware name (uname -m)
	machine string
}

// detectDriver selects the most capable driver available.
func (p probe) detectDriver(chip string) string {
	if chip == "" {
		chip = board.DefaultChip
	}
	if !strings.HasPrefix(chip, "/") {
		chip = filepath.Join("/dev", chip)
	}
	switch {
	case p.accessible(chip):
		return board.DriverGPIOCDev
	case p.accessible(gpiomemPath) && isARM(p.machine):
		return board.DriverRPIO
	case p.accessible(sysfsExportPath):
		return board.DriverSysfs
	default:
		return board.DriverSimulated
	}
}

func isARM(machine string) bool {
	return strings.HasPrefix(machine, "arm") || strings.HasPrefix(machine, "aarch64")
}
