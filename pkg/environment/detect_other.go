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

//go:build !linux

package environment

import (
	"github.com/rs/zerolog"

	"github.com/hypibole/hypibole/pkg/board"
)

// AutoDetectDriver detects the hardware driver to use based on the environment.
// Only simulated lines are available outside Linux.
func AutoDetectDriver(log zerolog.Logger, chip string) string {
	log.Debug().Msg("No GPIO support on this platform")
	return board.DriverSimulated
}
