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
	"syscall"

	"github.com/pkg/errors"
)

var (
	// Hardware layer reported a failure
	HardwareError = errors.New("hardware error")
	IsHardware    = isErrorFunc(HardwareError)
	// Line is claimed by another owner
	BusyError = errors.New("line busy")
	IsBusy    = isErrorFunc(BusyError)
	// Board has been closed
	ClosedError = errors.New("board closed")
	IsClosed    = isErrorFunc(ClosedError)
	// Level is not high/low
	InvalidLevelError = errors.New("invalid level")
	IsInvalidLevel    = isErrorFunc(InvalidLevelError)
	// Invalid driver or argument
	InvalidArgumentError = errors.New("invalid argument")
	IsInvalidArgument    = isErrorFunc(InvalidArgumentError)
	// Operation not valid in current direction
	InvalidDirectionError = errors.New("invalid direction")
	IsInvalidDirection    = isErrorFunc(InvalidDirectionError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

// LineError is returned when a hardware step on a line fails.
// Its cause is HardwareError or BusyError.
type LineError struct {
	// Kind of failure (HardwareError|BusyError)
	Kind error
	// Step that failed (acquire|direction|read|write|release)
	Op string
	// Offset of the line
	Offset int
	// Error reported by the hardware library
	Err error
}

// Error implements error.
func (e *LineError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Op, e.Offset, e.Err)
}

// Cause returns the kind of failure.
func (e *LineError) Cause() error { return e.Kind }

// Unwrap returns the error reported by the hardware library.
func (e *LineError) Unwrap() error { return e.Err }

// newLineError wraps an error returned by a driver.
// Lines claimed by another owner are reported as busy.
func newLineError(op string, offset int, err error) error {
	if err == nil {
		return nil
	}
	if le, ok := err.(*LineError); ok {
		return le
	}
	kind := HardwareError
	if IsBusy(err) || errors.Is(err, syscall.EBUSY) {
		kind = BusyError
	}
	return &LineError{Kind: kind, Op: op, Offset: offset, Err: err}
}
