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

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/hypibole/hypibole/pkg/registry"
)

// PinList is a list of GPIO indices.
// In a config file it is written as a comma separated string ("4,17")
// or as an array of integers ([4, 17]).
type PinList []int

// ParsePinList parses a comma separated list of GPIO indices.
// Empty entries are ignored, duplicates are removed.
func ParsePinList(s string) (PinList, error) {
	var result PinList
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		offset, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(ValidationError, "invalid GPIO index '%s'", part)
		}
		if offset < 0 || offset > registry.MaxOffset {
			return nil, errors.Wrapf(ValidationError, "GPIO index %d out of range 0-%d", offset, registry.MaxOffset)
		}
		result = append(result, offset)
	}
	return lo.Uniq(result), nil
}

// String returns the list in comma separated form.
func (l PinList) String() string {
	return strings.Join(lo.Map(l, func(offset int, _ int) string {
		return strconv.Itoa(offset)
	}), ",")
}

// UnmarshalTOML implements toml.Unmarshaler.
func (l *PinList) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		list, err := ParsePinList(v)
		if err != nil {
			return err
		}
		*l = list
		return nil
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, x := range v {
			n, ok := x.(int64)
			if !ok {
				return errors.Wrapf(ValidationError, "invalid GPIO index '%v'", x)
			}
			parts = append(parts, strconv.FormatInt(n, 10))
		}
		list, err := ParsePinList(strings.Join(parts, ","))
		if err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return errors.Wrapf(ValidationError, "invalid GPIO list '%v'", data)
	}
}

// Port is a TCP port, written as a string ("8080") or an integer in a
// config file. Zero means not set.
type Port int

// UnmarshalTOML implements toml.Unmarshaler.
func (p *Port) UnmarshalTOML(data interface{}) error {
	var n int64
	switch v := data.(type) {
	case int64:
		n = v
	case string:
		x, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return errors.Wrapf(ValidationError, "invalid port '%s'", v)
		}
		n = x
	default:
		return errors.Wrapf(ValidationError, "invalid port '%v'", data)
	}
	if n < 1 || n > 65535 {
		return errors.Wrapf(ValidationError, "port %d out of range", n)
	}
	*p = Port(n)
	return nil
}

// String returns the port in decimal form.
func (p Port) String() string {
	return fmt.Sprintf("%d", int(p))
}
