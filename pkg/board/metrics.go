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
	"github.com/hypibole/hypibole/pkg/metrics"
)

const (
	subSystem = "board"
)

var (
	// Total number of line acquisitions
	acquireTotal = metrics.MustRegisterCounterVec(subSystem,
		"acquire_total",
		"Total number of line acquisitions",
		"backend")
	// Total number of direction changes per line
	directionChangesTotal = metrics.MustRegisterCounterVec(subSystem,
		"direction_changes_total",
		"Total number of direction changes per line",
		"line", "direction")
	// Total number of failed hardware steps
	hardwareErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"hardware_errors_total",
		"Total number of failed hardware steps",
		"line", "op")
	// Number of currently acquired lines
	acquiredLinesGauge = metrics.MustRegisterGauge(subSystem,
		"acquired_lines",
		"Number of currently acquired lines")
)
