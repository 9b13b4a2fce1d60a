//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/hypibole/hypibole/pkg/board"
	"github.com/hypibole/hypibole/pkg/config"
	"github.com/hypibole/hypibole/pkg/environment"
	"github.com/hypibole/hypibole/pkg/events"
	"github.com/hypibole/hypibole/pkg/registry"
	"github.com/hypibole/hypibole/pkg/server"
	"github.com/hypibole/hypibole/pkg/service"
)

const (
	projectName = "Hypibole GPIO service"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
	maskAny        = errors.WithStack
)

func main() {
	var conf config.Config
	conf.AddFlags(pflag.CommandLine)
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := conf.Load(pflag.CommandLine); err != nil {
		Exitf("Invalid configuration: %v\n", err)
	}
	if level, err := zerolog.ParseLevel(conf.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	whitelist, err := conf.Whitelist()
	if err != nil {
		Exitf("Invalid whitelist: %v\n", err)
	}
	if whitelist.IsEmpty() {
		logger.Warn().Msg("No pins whitelisted; all requests will fail")
	}
	header, err := registry.HeaderByName(conf.Header)
	if err != nil {
		Exitf("Invalid header: %v\n", err)
	}
	reg, err := registry.New(whitelist, header)
	if err != nil {
		Exitf("Failed to build pin registry: %v\n", err)
	}
	acquire, err := board.ParseAcquirePolicy(conf.Acquire)
	if err != nil {
		Exitf("Invalid acquire policy: %v\n", err)
	}

	// Prepare drivers
	driverName := strings.ToLower(conf.Driver)
	if driverName == config.DriverAuto {
		driverName = environment.AutoDetectDriver(logger, conf.Chip)
	}
	var hwDriver board.Driver
	if len(whitelist.Gets) > 0 || len(whitelist.Sets) > 0 {
		hwDriver, err = board.NewDriver(board.DriverConfig{
			Name: driverName,
			Chip: conf.Chip,
		})
		if err != nil {
			Exitf("Failed to initialize %s driver: %v\n", driverName, err)
		}
	}
	b := board.New(board.Dependencies{
		Log:       logger,
		Hardware:  hwDriver,
		Simulated: board.NewSimulatedDriver(),
	})

	// Prepare events
	var publisher events.Publisher = events.NewNopPublisher()
	var mqttPublisher *events.MQTTPublisher
	if conf.MQTTBroker != "" {
		hostname, _ := os.Hostname()
		mqttPublisher, err = events.NewMQTTPublisher(events.MQTTConfig{
			Broker:      conf.MQTTBroker,
			ClientID:    fmt.Sprintf("hypibole-%s-%d", hostname, os.Getpid()),
			TopicPrefix: conf.MQTTTopicPrefix,
		}, logger)
		if err != nil {
			Exitf("Failed to initialize MQTT publisher: %v\n", err)
		}
		publisher = mqttPublisher
	}

	svc, err := service.New(service.Config{
		ReadbackOutputs: conf.ReadbackOutputs,
	}, service.Dependencies{
		Log:      logger,
		Registry: reg,
		Board:    b,
		Events:   publisher,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	httpServer, err := server.New(server.Config{
		Host:    conf.Address,
		Port:    conf.Port,
		Version: projectVersion,
		Driver:  driverName,
	}, logger, svc)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	logger.Info().
		Str("driver", driverName).
		Str("acquire", string(acquire)).
		Int("pins", reg.Len()).
		Msg("Board configured")
	if acquire == board.AcquireEager {
		if err := b.AcquireAll(ctx, reg.Descriptors()); err != nil {
			if cerr := b.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("Failed to release lines")
			}
			Exitf("Failed to acquire lines: %v\n", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(ctx) })
	if mqttPublisher != nil {
		g.Go(func() error { return mqttPublisher.Run(ctx) })
	}
	runErr := g.Wait()
	if err := b.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to release lines")
	}
	if runErr != nil {
		Exitf("Service run failed: %v\n", maskAny(runErr))
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
