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

package registry

import (
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(Whitelist{
		Gets:    []int{4, 17},
		Sets:    []int{4, 27},
		SimGets: []int{4, 100},
		SimSets: []int{101},
	}, RaspberryPiJ8)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestResolveLogicalAndPhysical(t *testing.T) {
	r := testRegistry(t)
	tests := []struct {
		id       string
		offset   int
		physical string
	}{
		{"4", 4, "J8-7"},
		{"GPIO4", 4, "J8-7"},
		{"gpio04", 4, "J8-7"},
		{" 4 ", 4, "J8-7"},
		{"J8-7", 4, "J8-7"},
		{"j8-7", 4, "J8-7"},
		{"17", 17, "J8-11"},
		{"J8-11", 17, "J8-11"},
		{"27", 27, "J8-13"},
		{"100", 100, ""},
	}
	for _, test := range tests {
		d, err := r.Resolve(test.id)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", test.id, err)
			continue
		}
		if d.Offset != test.offset {
			t.Errorf("Resolve(%q) got offset %d, expected %d", test.id, d.Offset, test.offset)
		}
		if d.Physical != test.physical {
			t.Errorf("Resolve(%q) got physical %q, expected %q", test.id, d.Physical, test.physical)
		}
	}
}

func TestResolveSameDescriptorFromEitherMap(t *testing.T) {
	r := testRegistry(t)
	for _, d := range r.Descriptors() {
		if d.Physical == "" {
			continue
		}
		byLogical, err := r.Resolve(d.Logical)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", d.Logical, err)
		}
		byPhysical, err := r.Resolve(d.Physical)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", d.Physical, err)
		}
		if byLogical != byPhysical {
			t.Errorf("Descriptors differ: %v != %v", byLogical, byPhysical)
		}
	}
}

func TestResolveNotFound(t *testing.T) {
	r := testRegistry(t)
	for _, id := range []string{"5", "J8-29", "GPIO", "GPIOJ8-7", "", "-1", "abc", "99999999999999999999"} {
		_, err := r.Resolve(id)
		if !IsNotFound(err) {
			t.Errorf("Resolve(%q) expected NotFound, got %v", id, err)
		}
	}
}

func TestHardwareTakesPriority(t *testing.T) {
	r := testRegistry(t)
	d, err := r.Resolve("4")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Backend != BackendHardware {
		t.Errorf("Expected hardware backend, got %s", d.Backend)
	}
	if !d.CanGet || !d.CanSet {
		t.Errorf("Expected get and set permitted, got %+v", d)
	}
	d, _ = r.Resolve("100")
	if d.Backend != BackendSimulated || !d.CanGet || d.CanSet {
		t.Errorf("Unexpected simulated line %+v", d)
	}
	d, _ = r.Resolve("101")
	if d.Backend != BackendSimulated || d.CanGet || !d.CanSet {
		t.Errorf("Unexpected simulated line %+v", d)
	}
}

func TestDescriptorsSorted(t *testing.T) {
	r := testRegistry(t)
	lines := r.Descriptors()
	if len(lines) != r.Len() || r.Len() != 5 {
		t.Fatalf("Expected 5 lines, got %d", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		if lines[i-1].Offset >= lines[i].Offset {
			t.Errorf("Lines not sorted at %d: %v", i, lines)
		}
	}
}

func TestNewRejectsOutOfRange(t *testing.T) {
	for _, offset := range []int{-1, MaxOffset + 1} {
		if _, err := New(Whitelist{Gets: []int{offset}}, NoHeader); !IsValidation(err) {
			t.Errorf("Expected validation error for %d, got %v", offset, err)
		}
	}
}

func TestNewFromDescriptorsRejectsOverlap(t *testing.T) {
	_, err := NewFromDescriptors([]LineDescriptor{
		{Offset: 1, Logical: "1", Physical: "LED"},
		{Offset: 2, Logical: "LED"},
	})
	if !IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	_, err = NewFromDescriptors([]LineDescriptor{
		{Offset: 1, Logical: "1"},
		{Offset: 2, Logical: "GPIO1"},
	})
	if !IsValidation(err) {
		t.Errorf("Expected validation error for duplicate logical id, got %v", err)
	}
}

func TestEmptyWhitelist(t *testing.T) {
	if !(Whitelist{}).IsEmpty() {
		t.Error("Must be empty")
	}
	r, err := New(Whitelist{}, NoHeader)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := r.Resolve("4"); !IsNotFound(err) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestHeaderByName(t *testing.T) {
	if h, err := HeaderByName("rpi-j8"); err != nil || h.Name != "J8" {
		t.Errorf("Unexpected header %v, %v", h, err)
	}
	if h, err := HeaderByName(""); err != nil || h.Name != "" {
		t.Errorf("Unexpected header %v, %v", h, err)
	}
	if _, err := HeaderByName("foo"); !IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}
