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

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hypibole/hypibole/pkg/board"
	"github.com/hypibole/hypibole/pkg/registry"
	"github.com/hypibole/hypibole/pkg/service"
)

var errTest = errors.New("test failure")

func newTestServer(t *testing.T) (http.Handler, *board.SimulatedDriver) {
	t.Helper()
	reg, err := registry.New(registry.Whitelist{
		Gets:    []int{4, 17},
		Sets:    []int{4},
		SimSets: []int{100},
	}, registry.RaspberryPiJ8)
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}
	hw := board.NewSimulatedDriver()
	b := board.New(board.Dependencies{
		Log:       zerolog.Nop(),
		Hardware:  hw,
		Simulated: board.NewSimulatedDriver(),
	})
	t.Cleanup(func() { b.Close() })
	svc, err := service.New(service.Config{}, service.Dependencies{
		Log:      zerolog.Nop(),
		Registry: reg,
		Board:    b,
	})
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}
	s, err := New(Config{Version: "test", Driver: "simulated"}, zerolog.Nop(), svc)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s.Handler(), hw
}

func do(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Code, strings.TrimSpace(rec.Body.String())
}

func TestScenarios(t *testing.T) {
	h, _ := newTestServer(t)

	code, body := do(t, h, "/?pin=4&op=get")
	if code != http.StatusOK || body != `{"status":"success","operation":"get","pin":"4","level":"low"}` {
		t.Errorf("Unexpected get response %d %s", code, body)
	}

	code, body = do(t, h, "/?pin=4&op=set&level=high")
	if code != http.StatusOK || body != `{"status":"success","operation":"set","pin":"4","level":"high"}` {
		t.Errorf("Unexpected set response %d %s", code, body)
	}
	code, body = do(t, h, "/?pin=4&op=get")
	if code != http.StatusOK || body != `{"status":"success","operation":"get","pin":"4","level":"high"}` {
		t.Errorf("Unexpected get response %d %s", code, body)
	}

	code, body = do(t, h, "/?pin=5&op=get")
	if code != http.StatusNotFound || body != `{"error":"Failed to perform board operation: \"Could not find pin 5 in either map.\""}` {
		t.Errorf("Unexpected not found response %d %s", code, body)
	}
}

func TestGPIOPath(t *testing.T) {
	h, _ := newTestServer(t)
	code, body := do(t, h, "/gpio?op=get&pin=J8-7")
	if code != http.StatusOK || body != `{"status":"success","operation":"get","pin":"J8-7","level":"low"}` {
		t.Errorf("Unexpected response %d %s", code, body)
	}
}

func TestDecodeErrors(t *testing.T) {
	h, hw := newTestServer(t)
	tests := []struct {
		target  string
		message string
	}{
		{"/", "No arguments in URL."},
		{"/?", "Did not get required GPIO index argument."},
		{"/?pin=4&op=get&foo=bar", `Unrecognized query parameter: "foo"`},
		{"/?op=get", "Did not get required GPIO index argument."},
		{"/?pin=4", "Did not get required operation argument."},
		{"/?pin=4&op=toggle", `Unrecognized operation parameter: "toggle"`},
		{"/?pin=4&op=set", "Did not get level argument required for set."},
		{"/?pin=4&op=set&level=middle", `Unrecognized level parameter: "middle"`},
	}
	for _, test := range tests {
		code, body := do(t, h, test.target)
		if code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", test.target, code)
		}
		var resp errorResponse
		if err := json.Unmarshal([]byte(body), &resp); err != nil {
			t.Errorf("%s: invalid JSON %s: %v", test.target, body, err)
			continue
		}
		if resp.Error != test.message {
			t.Errorf("%s: expected error %q, got %q", test.target, test.message, resp.Error)
		}
	}
	if opens, _, _, _ := hw.Stats(4); opens != 0 {
		t.Errorf("Decode errors must not touch the hardware")
	}
}

func TestRepeatedParameterOverrides(t *testing.T) {
	h, _ := newTestServer(t)
	code, body := do(t, h, "/?pin=5&pin=4&op=set&op=get")
	if code != http.StatusOK || !strings.Contains(body, `"operation":"get"`) || !strings.Contains(body, `"pin":"4"`) {
		t.Errorf("Unexpected response %d %s", code, body)
	}
}

func TestFailureStatusCodes(t *testing.T) {
	h, hw := newTestServer(t)

	code, body := do(t, h, "/?pin=17&op=set&level=high")
	if code != http.StatusForbidden || body != `{"error":"Failed to perform board operation: \"Pin, 17, is not in the set whitelist for this pin type!\""}` {
		t.Errorf("Unexpected permission response %d %s", code, body)
	}

	hw.FailNext(4, "read", errTest)
	code, _ = do(t, h, "/?pin=4&op=get")
	if code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", code)
	}

	other, err := hw.Open(17, board.DirectionInput, board.Low)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer other.Close()
	code, _ = do(t, h, "/?pin=17&op=get")
	if code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", code)
	}
}

func TestPins(t *testing.T) {
	h, _ := newTestServer(t)
	code, body := do(t, h, "/pins")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	var pins []pinResponse
	if err := json.Unmarshal([]byte(body), &pins); err != nil {
		t.Fatalf("Invalid JSON %s: %v", body, err)
	}
	expected := []pinResponse{
		{Pin: "4", Physical: "J8-7", Backend: "hardware", Get: true, Set: true},
		{Pin: "17", Physical: "J8-11", Backend: "hardware", Get: true},
		{Pin: "100", Backend: "simulated", Set: true},
	}
	if len(pins) != len(expected) {
		t.Fatalf("Expected %d pins, got %d", len(expected), len(pins))
	}
	for i := range expected {
		if pins[i] != expected[i] {
			t.Errorf("Pin %d: expected %+v, got %+v", i, expected[i], pins[i])
		}
	}
}

func TestStatus(t *testing.T) {
	h, _ := newTestServer(t)
	code, body := do(t, h, "/status")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	var status statusResponse
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("Invalid JSON %s: %v", body, err)
	}
	if status.Version != "test" || status.Driver != "simulated" || status.Pins != 3 {
		t.Errorf("Unexpected status %+v", status)
	}
}

func TestMetrics(t *testing.T) {
	h, _ := newTestServer(t)
	do(t, h, "/?pin=4&op=get")
	code, body := do(t, h, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if !strings.Contains(body, "hypibole_service_operations_total") {
		t.Errorf("Expected operations counter in metrics")
	}
}
