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
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var testBackoff = Backoff{
	Initial: time.Millisecond,
	Max:     time.Millisecond * 4,
	Factor:  2,
}

func TestSuperviseRestartsUntilClean(t *testing.T) {
	runs := 0
	p := func(ctx context.Context) error {
		runs++
		if runs < 3 {
			return errors.New("exit status 1")
		}
		return nil
	}
	if err := Supervise(context.Background(), zerolog.Nop(), "test", p, testBackoff); err != nil {
		t.Fatalf("Supervise failed: %v", err)
	}
	if runs != 3 {
		t.Errorf("Expected 3 runs, got %d", runs)
	}
}

func TestSuperviseStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	p := func(ctx context.Context) error {
		runs++
		if runs == 2 {
			cancel()
		}
		return errors.New("exit status 1")
	}
	if err := Supervise(ctx, zerolog.Nop(), "test", p, testBackoff); err != nil {
		t.Fatalf("Supervise failed: %v", err)
	}
	if runs != 2 {
		t.Errorf("Expected 2 runs, got %d", runs)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	delay := testBackoff.Initial
	for i := 0; i < 10; i++ {
		delay = testBackoff.next(delay)
	}
	if delay != testBackoff.Max {
		t.Errorf("Expected delay %s, got %s", testBackoff.Max, delay)
	}
}
