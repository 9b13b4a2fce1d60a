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
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hypibole/hypibole/pkg/board"
	"github.com/hypibole/hypibole/pkg/events"
	"github.com/hypibole/hypibole/pkg/registry"
)

// Config of the service.
type Config struct {
	// If set, a get on a line that is currently an output reads back
	// the driven level instead of switching the line to input.
	ReadbackOutputs bool
}

// Dependencies of the service.
type Dependencies struct {
	Log      zerolog.Logger
	Registry *registry.Registry
	Board    *board.Board
	// Receives level changes (optional)
	Events events.Publisher
}

// Service performs board operations on whitelisted pins.
// It is safe for concurrent use.
type Service struct {
	Config
	log      zerolog.Logger
	registry *registry.Registry
	board    *board.Board
	events   events.Publisher
}

// New creates a Service.
func New(conf Config, deps Dependencies) (*Service, error) {
	if deps.Registry == nil {
		return nil, errors.New("registry is missing")
	}
	if deps.Board == nil {
		return nil, errors.New("board is missing")
	}
	if deps.Events == nil {
		deps.Events = events.NewNopPublisher()
	}
	return &Service{
		Config:   conf,
		log:      deps.Log.With().Str("component", "service").Logger(),
		registry: deps.Registry,
		board:    deps.Board,
		events:   deps.Events,
	}, nil
}

// Descriptors returns all whitelisted lines.
func (s *Service) Descriptors() []registry.LineDescriptor {
	return s.registry.Descriptors()
}

// Execute performs the given request.
// Errors never escape: every failure is reported in the outcome.
func (s *Service) Execute(ctx context.Context, req Request) Outcome {
	start := time.Now()
	desc, outcome := s.execute(ctx, req)

	pinLabel := "unknown"
	if desc != nil {
		pinLabel = desc.Logical
	}
	operationsTotal.WithLabelValues(pinLabel, req.Operation.String(), outcome.Result()).Inc()
	operationDuration.WithLabelValues(req.Operation.String()).Observe(time.Since(start).Seconds())

	if f := outcome.Failure; f != nil {
		s.log.Debug().
			Str("pin", req.Pin).
			Str("op", req.Operation.String()).
			Str("kind", f.Kind.String()).
			Str("error", f.Message).
			Msg("Operation failed")
	} else {
		s.log.Debug().
			Str("pin", req.Pin).
			Str("op", req.Operation.String()).
			Str("level", outcome.Level.String()).
			Msg("Operation succeeded")
	}
	return outcome
}

// execute performs the given request, returning the resolved line
// (if any) and the outcome.
func (s *Service) execute(ctx context.Context, req Request) (*registry.LineDescriptor, Outcome) {
	op := req.Operation
	desc, err := s.registry.Resolve(req.Pin)
	if err != nil {
		if registry.IsNotFound(err) {
			return nil, failure(op, req.Pin, FailureResolution,
				fmt.Sprintf("Could not find pin %s in either map.", req.Pin))
		}
		return nil, failure(op, req.Pin, FailureValidation, err.Error())
	}

	switch op {
	case OperationGet:
		if !desc.CanGet {
			return &desc, failure(op, req.Pin, FailurePermission,
				fmt.Sprintf("Pin, %s, is not in the get whitelist for this pin type!", req.Pin))
		}
		level, err := s.get(ctx, desc)
		if err != nil {
			return &desc, s.failureFromError(req, board.DirectionInput, board.Low, err)
		}
		return &desc, success(op, req.Pin, level)
	case OperationSet:
		if req.Level == "" {
			return &desc, failure(op, req.Pin, FailureValidation,
				"Did not get level argument required for set.")
		}
		level, err := board.ParseLevel(req.Level)
		if err != nil {
			return &desc, failure(op, req.Pin, FailureValidation,
				fmt.Sprintf("Unrecognized level parameter: \"%s\"", req.Level))
		}
		if !desc.CanSet {
			return &desc, failure(op, req.Pin, FailurePermission,
				fmt.Sprintf("Pin, %s, is not in the set whitelist for this pin type!", req.Pin))
		}
		if err := s.set(ctx, desc, level); err != nil {
			return &desc, s.failureFromError(req, board.DirectionOutput, level, err)
		}
		s.events.Publish(events.Change{
			Pin:   desc.Logical,
			Level: level.String(),
			Time:  time.Now(),
		})
		return &desc, success(op, req.Pin, level)
	default:
		return &desc, failure(op, req.Pin, FailureValidation,
			fmt.Sprintf("Unrecognized operation parameter: \"%s\"", op))
	}
}

// get reads the level of the given line, switching it to input
// when needed.
func (s *Service) get(ctx context.Context, desc registry.LineDescriptor) (board.Level, error) {
	var level board.Level
	err := s.board.Execute(ctx, desc, func(l *board.Line) error {
		if s.ReadbackOutputs {
			if dir, known := l.Direction(); known && dir == board.DirectionOutput {
				var err error
				level, err = l.Read()
				return err
			}
		}
		if err := l.EnsureDirection(board.DirectionInput, board.Low); err != nil {
			return err
		}
		var err error
		level, err = l.Read()
		return err
	})
	return level, err
}

// set drives the given level on the given line, switching it to output
// when needed.
func (s *Service) set(ctx context.Context, desc registry.LineDescriptor, level board.Level) error {
	return s.board.Execute(ctx, desc, func(l *board.Line) error {
		if err := l.EnsureDirection(board.DirectionOutput, level); err != nil {
			return err
		}
		return l.Write(level)
	})
}

// failureFromError converts an error from the board into a failure outcome.
func (s *Service) failureFromError(req Request, direction board.Direction, level board.Level, err error) Outcome {
	op := req.Operation
	pin := req.Pin
	var le *board.LineError
	switch {
	case board.IsClosed(err):
		return failure(op, pin, FailureLifecycle, "Board is closed.")
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return failure(op, pin, FailureLifecycle,
			fmt.Sprintf("Gave up waiting for pin %s: %v", pin, errors.Cause(err)))
	case errors.As(err, &le):
		if board.IsBusy(le) {
			return failure(op, pin, FailureLifecycle,
				fmt.Sprintf("Pin %s is claimed by another owner: %v", pin, le.Err))
		}
		switch le.Op {
		case "acquire":
			return failure(op, pin, FailureHardware,
				fmt.Sprintf("Failed to acquire pin %s: %v", pin, le.Err))
		case "direction":
			return failure(op, pin, FailureHardware,
				fmt.Sprintf("Failed to configure pin %s as %s (line direction is now unknown): %v", pin, direction, le.Err))
		case "read":
			return failure(op, pin, FailureHardware,
				fmt.Sprintf("Failed to read pin %s: %v", pin, le.Err))
		case "write":
			return failure(op, pin, FailureHardware,
				fmt.Sprintf("Failed to write level %s to pin %s (line level is now unknown): %v", level, pin, le.Err))
		default:
			return failure(op, pin, FailureHardware,
				fmt.Sprintf("Hardware failure on pin %s: %v", pin, le.Err))
		}
	default:
		return failure(op, pin, FailureHardware,
			fmt.Sprintf("Failed to %s pin %s: %v", op, pin, errors.Cause(err)))
	}
}
