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
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hypibole/hypibole/pkg/registry"
	"github.com/hypibole/hypibole/pkg/service"
)

// Config for the HTTP server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	Port int
	// Version of the program, reported on /status
	Version string
	// Name of the hardware driver, reported on /status
	Driver string
}

// Service performs board operations.
type Service interface {
	// Execute performs the given request.
	Execute(ctx context.Context, req service.Request) service.Outcome
	// Descriptors returns all whitelisted lines.
	Descriptors() []registry.LineDescriptor
}

// Server runs the HTTP server for the service.
type Server struct {
	Config
	log        zerolog.Logger
	requestLog zerolog.Logger
	service    Service
	startedAt  time.Time
}

const shutdownTimeout = time.Second * 5

var maskAny = errors.WithStack

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, service Service) (*Server, error) {
	if service == nil {
		return nil, errors.New("service is missing")
	}
	return &Server{
		Config:     cfg,
		log:        log.With().Str("component", "server").Logger(),
		requestLog: log.With().Str("component", "server.requests").Logger(),
		service:    service,
		startedAt:  time.Now(),
	}, nil
}

// Address returns the address the server listens on.
func (s *Server) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.Use(s.logRequests)
	router.GET("/", s.handleOperation)
	router.GET("/gpio", s.handleOperation)
	router.GET("/pins", s.handlePins)
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	router.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	router.GET("/debug/pprof/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	router.GET("/debug/pprof/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	return router
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := s.log
	addr := s.Address()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on address %s", addr)
	}
	srv := http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Second * 10,
	}

	serveErr := make(chan error, 1)
	log.Info().Str("address", addr).Msg("Serving HTTP")
	go func() {
		defer close(serveErr)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		log.Debug().Str("address", addr).Msg("Done Serving HTTP")
	}()

	// Wait until context closed
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "failed to serve HTTP server")
		}
		return nil
	}

	log.Info().Msg("Closing server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return maskAny(err)
	}
	return nil
}

// logRequests logs every request on the request logger.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		s.requestLog.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("query", req.URL.RawQuery).
			Str("remote", c.RealIP()).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("Request")
		return nil
	}
}
