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

package service

import (
	"github.com/hypibole/hypibole/pkg/board"
)

// Operation requested on a pin.
type Operation int

const (
	OperationGet Operation = iota + 1
	OperationSet
)

// String returns "get" or "set".
func (o Operation) String() string {
	switch o {
	case OperationGet:
		return "get"
	case OperationSet:
		return "set"
	default:
		return "unknown"
	}
}

// ParseOperation parses "get" or "set".
// Returns false for any other value.
func ParseOperation(s string) (Operation, bool) {
	switch s {
	case "get":
		return OperationGet, true
	case "set":
		return OperationSet, true
	default:
		return 0, false
	}
}

// Request for a single operation on a pin.
type Request struct {
	// Identifier of the pin (logical or physical)
	Pin string
	// Requested operation
	Operation Operation
	// Requested level ("high"|"low"), only used for set.
	// Empty when absent.
	Level string
}

// FailureKind classifies failures.
type FailureKind int

const (
	// Invalid request, detected before any hardware access
	FailureValidation FailureKind = iota + 1
	// Pin is not whitelisted
	FailureResolution
	// Operation is not whitelisted for the pin
	FailurePermission
	// Hardware reported an error
	FailureHardware
	// Line is claimed elsewhere, the board is closed or the request gave up waiting
	FailureLifecycle
)

// String returns a short name of the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureResolution:
		return "resolution"
	case FailurePermission:
		return "permission"
	case FailureHardware:
		return "hardware"
	case FailureLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// Failure describes why an operation did not complete.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Outcome of an operation. Failure is nil on success.
type Outcome struct {
	Operation Operation
	Pin       string
	Level     board.Level
	Failure   *Failure
}

// IsSuccess returns true when the operation completed.
func (o Outcome) IsSuccess() bool {
	return o.Failure == nil
}

// Result returns "success" or the kind of failure.
func (o Outcome) Result() string {
	if o.Failure == nil {
		return "success"
	}
	return o.Failure.Kind.String()
}

func success(op Operation, pin string, level board.Level) Outcome {
	return Outcome{Operation: op, Pin: pin, Level: level}
}

func failure(op Operation, pin string, kind FailureKind, message string) Outcome {
	return Outcome{
		Operation: op,
		Pin:       pin,
		Failure:   &Failure{Kind: kind, Message: message},
	}
}
