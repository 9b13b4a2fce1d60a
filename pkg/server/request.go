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
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/hypibole/hypibole/pkg/board"
	"github.com/hypibole/hypibole/pkg/service"
)

const (
	pinParam   = "pin"
	opParam    = "op"
	levelParam = "level"
)

// decodeError is returned for a query that does not describe an operation.
// Its message is sent to the client as is.
type decodeError struct {
	message string
}

func (e *decodeError) Error() string {
	return e.message
}

func newDecodeError(format string, args ...interface{}) error {
	return &decodeError{message: fmt.Sprintf(format, args...)}
}

// isDecodeError returns true when the given error is a decodeError.
func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

// decodeRequest parses the query of the given URL into a request.
// Parameters are processed in order; a repeated parameter overrides
// earlier values.
func decodeRequest(u *url.URL) (service.Request, error) {
	if u.RawQuery == "" && !u.ForceQuery {
		return service.Request{}, newDecodeError("No arguments in URL.")
	}

	var pin, op, level *string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return service.Request{}, newDecodeError("Invalid query parameter: \"%s\"", rawKey)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return service.Request{}, newDecodeError("Invalid value for query parameter \"%s\": %v", key, err)
		}
		switch key {
		case pinParam:
			pin = &value
		case opParam:
			op = &value
		case levelParam:
			level = &value
		default:
			return service.Request{}, newDecodeError("Unrecognized query parameter: \"%s\"", key)
		}
	}

	if pin == nil {
		return service.Request{}, newDecodeError("Did not get required GPIO index argument.")
	}
	if op == nil {
		return service.Request{}, newDecodeError("Did not get required operation argument.")
	}
	operation, ok := service.ParseOperation(*op)
	if !ok {
		return service.Request{}, newDecodeError("Unrecognized operation parameter: \"%s\"", *op)
	}
	req := service.Request{
		Pin:       *pin,
		Operation: operation,
	}
	if operation == service.OperationSet {
		if level == nil {
			return service.Request{}, newDecodeError("Did not get level argument required for set.")
		}
		if _, err := board.ParseLevel(*level); err != nil {
			return service.Request{}, newDecodeError("Unrecognized level parameter: \"%s\"", *level)
		}
		req.Level = *level
	}
	return req, nil
}
