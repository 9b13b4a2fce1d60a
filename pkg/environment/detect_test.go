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
	"testing"

	"github.com/hypibole/hypibole/pkg/board"
)

func TestDetectDriver(t *testing.T) {
	tests := []struct {
		paths    []string
		machine  string
		chip     string
		expected string
	}{
		{[]string{"/dev/gpiochip0", "/dev/gpiomem"}, "aarch64", "", board.DriverGPIOCDev},
		{[]string{"/dev/gpiochip1"}, "armv7l", "gpiochip1", board.DriverGPIOCDev},
		{[]string{"/dev/gpiochip0"}, "armv7l", "gpiochip1", board.DriverSimulated},
		{[]string{"/dev/gpiomem", sysfsExportPath}, "armv7l", "", board.DriverRPIO},
		{[]string{"/dev/gpiomem", sysfsExportPath}, "x86_64", "", board.DriverSysfs},
		{nil, "x86_64", "", board.DriverSimulated},
	}
	for _, test := range tests {
		paths := test.paths
		p := probe{
			accessible: func(path string) bool {
				for _, x := range paths {
					if x == path {
						return true
					}
				}
				return false
			},
			machine: test.machine,
		}
		if driver := p.detectDriver(test.chip); driver != test.expected {
			t.Errorf("detectDriver(%v, %s, %q) got %s, expected %s", test.paths, test.machine, test.chip, driver, test.expected)
		}
	}
}
