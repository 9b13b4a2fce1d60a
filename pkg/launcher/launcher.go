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

package launcher

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Process runs a service once.
// It returns nil when the service exited cleanly.
type Process func(ctx context.Context) error

// Backoff controls the delay between restarts.
type Backoff struct {
	// Delay before the first restart
	Initial time.Duration
	// Upper limit of the delay
	Max time.Duration
	// Growth of the delay after each failure
	Factor float64
	// A run lasting at least this long resets the delay
	ResetAfter time.Duration
}

// DefaultBackoff is used by the launcher.
var DefaultBackoff = Backoff{
	Initial:    time.Millisecond * 100,
	Max:        time.Second * 30,
	Factor:     1.5,
	ResetAfter: time.Minute,
}

// next returns the delay following the given delay.
func (b Backoff) next(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * b.Factor)
	if delay > b.Max {
		delay = b.Max
	}
	return delay
}

// Supervise runs the given process until it exits cleanly or
// the given context is canceled.
// Abnormal exits are restarted with an increasing delay.
func Supervise(ctx context.Context, log zerolog.Logger, description string, p Process, backoff Backoff) error {
	delay := backoff.Initial
	for {
		if ctx.Err() != nil {
			// Context canceled
			return nil
		}
		started := time.Now()
		err := p(ctx)
		if ctx.Err() != nil {
			log.Info().Msgf("Stopped %s; context canceled", description)
			return nil
		}
		if err == nil {
			log.Info().Msgf("%s exited cleanly", description)
			return nil
		}
		if backoff.ResetAfter > 0 && time.Since(started) >= backoff.ResetAfter {
			delay = backoff.Initial
		}
		log.Warn().Err(err).Dur("delay", delay).Msgf("%s failed; restarting", description)
		select {
		case <-ctx.Done():
			// Context canceled
			log.Info().Msgf("Stopping %s; context canceled", description)
			return nil
		case <-time.After(delay):
			// Continue
		}
		delay = backoff.next(delay)
	}
}

// terminateTimeout is the time a service gets to exit after
// being asked to terminate.
const terminateTimeout = time.Second * 10

// Command returns a process that runs the given executable with
// given arguments, sharing stdio with the launcher.
// When the context is canceled the service is asked to terminate.
func Command(executable string, args []string) Process {
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, executable, args...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Cancel = func() error {
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		cmd.WaitDelay = terminateTimeout
		if err := cmd.Run(); err != nil {
			return errors.Wrapf(err, "failed to run %s", executable)
		}
		return nil
	}
}
