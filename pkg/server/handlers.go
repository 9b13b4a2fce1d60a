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
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/hypibole/hypibole/pkg/registry"
	"github.com/hypibole/hypibole/pkg/service"
)

// operationResponse is sent after a successful operation.
type operationResponse struct {
	Status    string `json:"status"`
	Operation string `json:"operation"`
	Pin       string `json:"pin"`
	Level     string `json:"level"`
}

// errorResponse is sent after a failed operation.
type errorResponse struct {
	Error string `json:"error"`
}

// pinResponse describes a single whitelisted line.
type pinResponse struct {
	Pin      string `json:"pin"`
	Physical string `json:"physical,omitempty"`
	Backend  string `json:"backend"`
	Get      bool   `json:"get"`
	Set      bool   `json:"set"`
}

// statusResponse describes the running service.
type statusResponse struct {
	Version       string `json:"version"`
	Driver        string `json:"driver"`
	Started       string `json:"started"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Pins          int    `json:"pins"`
}

const boardOperationFailedPrefix = "Failed to perform board operation: "

// handleOperation decodes a get/set request from the query and performs it.
func (s *Server) handleOperation(c echo.Context) error {
	req, err := decodeRequest(c.Request().URL)
	if err != nil {
		if isDecodeError(err) {
			return sendJSON(c, http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return sendJSON(c, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	outcome := s.service.Execute(c.Request().Context(), req)
	if f := outcome.Failure; f != nil {
		return sendJSON(c, statusForFailure(f.Kind), errorResponse{
			Error: fmt.Sprintf("%s\"%s\"", boardOperationFailedPrefix, f.Message),
		})
	}
	return sendJSON(c, http.StatusOK, operationResponse{
		Status:    "success",
		Operation: outcome.Operation.String(),
		Pin:       outcome.Pin,
		Level:     outcome.Level.String(),
	})
}

// handlePins lists all whitelisted lines.
func (s *Server) handlePins(c echo.Context) error {
	result := lo.Map(s.service.Descriptors(), func(d registry.LineDescriptor, _ int) pinResponse {
		return pinResponse{
			Pin:      d.Logical,
			Physical: d.Physical,
			Backend:  string(d.Backend),
			Get:      d.CanGet,
			Set:      d.CanSet,
		}
	})
	return sendJSON(c, http.StatusOK, result)
}

// handleStatus reports version and uptime.
func (s *Server) handleStatus(c echo.Context) error {
	return sendJSON(c, http.StatusOK, statusResponse{
		Version:       s.Version,
		Driver:        s.Driver,
		Started:       humanize.Time(s.startedAt),
		UptimeSeconds: int64(time.Since(s.startedAt) / time.Second),
		Pins:          len(s.service.Descriptors()),
	})
}

// statusForFailure returns the HTTP status for the given kind of failure.
func statusForFailure(kind service.FailureKind) int {
	switch kind {
	case service.FailureValidation:
		return http.StatusBadRequest
	case service.FailureResolution:
		return http.StatusNotFound
	case service.FailurePermission:
		return http.StatusForbidden
	case service.FailureLifecycle:
		return http.StatusConflict
	case service.FailureHardware:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// sendJSON encodes given body as JSON and sends it to the given writer with given HTTP status.
func sendJSON(c echo.Context, status int, body interface{}) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(status)
	if body == nil {
		w.Write([]byte("{}"))
		return nil
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(body); err != nil {
		return maskAny(err)
	}
	return nil
}
