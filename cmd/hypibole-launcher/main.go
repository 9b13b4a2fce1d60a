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

package main

import (
	"context"
	"fmt"
	"os"

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"

	"github.com/hypibole/hypibole/pkg/config"
	"github.com/hypibole/hypibole/pkg/launcher"
)

func main() {
	if len(os.Args) < 3 {
		Exitf("Usage: %s <service-binary> <config.toml>\n", os.Args[0])
	}
	executable := os.Args[1]
	configPath := os.Args[2]

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("component", "launcher").Logger()

	f, err := config.LoadFile(configPath)
	if err != nil {
		Exitf("Unable to read \"%s\": %v\n", configPath, err)
	}
	args := f.Args()

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	logger.Info().Str("executable", executable).Strs("args", args).Msg("Launching service")
	if err := launcher.Supervise(ctx, logger, executable, launcher.Command(executable, args), launcher.DefaultBackoff); err != nil {
		Exitf("Launcher failed: %v\n", err)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
