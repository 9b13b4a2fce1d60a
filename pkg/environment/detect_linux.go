//    Copyright 2018 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package environment

import (
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// AutoDetectDriver detects the hardware driver to use based on the environment.
func AutoDetectDriver(log zerolog.Logger, chip string) string {
	var name unix.Utsname
	machine := ""
	if err := unix.Uname(&name); err == nil {
		machine = strings.TrimRight(string(name.Machine[:]), "\x00")
	}
	p := probe{
		accessible: func(path string) bool {
			return unix.Access(path, unix.R_OK|unix.W_OK) == nil
		},
		machine: machine,
	}
	driver := p.detectDriver(chip)
	log.Debug().
		Str("machine", machine).
		Str("driver", driver).
		Msg("Detected driver")
	return driver
}
