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
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// File is the content of a TOML config file.
//
//	[network]
//	address = "0.0.0.0"
//	port = "8080"
//
//	[board]
//	gets = "4,17"
//	sets = "4"
//	simgets = ""
//	simsets = "100"
type File struct {
	Network NetworkSection `toml:"network"`
	Board   BoardSection   `toml:"board"`
	Events  EventsSection  `toml:"events"`
}

// NetworkSection holds the [network] table.
type NetworkSection struct {
	Address string `toml:"address"`
	Port    Port   `toml:"port"`
}

// BoardSection holds the [board] table.
type BoardSection struct {
	Gets            PinList `toml:"gets"`
	Sets            PinList `toml:"sets"`
	SimGets         PinList `toml:"simgets"`
	SimSets         PinList `toml:"simsets"`
	Driver          string  `toml:"driver"`
	Chip            string  `toml:"chip"`
	Header          string  `toml:"header"`
	Acquire         string  `toml:"acquire"`
	ReadbackOutputs *bool   `toml:"readback_outputs"`
}

// EventsSection holds the [events] table.
type EventsSection struct {
	MQTTBroker      string `toml:"mqtt_broker"`
	MQTTTopicPrefix string `toml:"mqtt_topic_prefix"`
}

// LoadFile reads and parses the config file at the given path.
// Unknown keys are rejected.
func LoadFile(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, errors.Wrapf(err, "failed to parse config file '%s'", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return File{}, errors.Wrapf(ValidationError, "unknown keys in config file '%s': %s", path, strings.Join(keys, ", "))
	}
	return f, nil
}

// Args returns the command line arguments for the service that are
// equivalent to the content of the file.
func (f File) Args() []string {
	var args []string
	add := func(name, value string) {
		args = append(args, "--"+name, value)
	}
	if f.Network.Address != "" {
		add(FlagAddress, f.Network.Address)
	}
	if f.Network.Port != 0 {
		add(FlagPort, f.Network.Port.String())
	}
	if f.Board.Gets != nil {
		add(FlagGets, f.Board.Gets.String())
	}
	if f.Board.Sets != nil {
		add(FlagSets, f.Board.Sets.String())
	}
	if f.Board.SimGets != nil {
		add(FlagSimGets, f.Board.SimGets.String())
	}
	if f.Board.SimSets != nil {
		add(FlagSimSets, f.Board.SimSets.String())
	}
	if f.Board.Driver != "" {
		add(FlagDriver, f.Board.Driver)
	}
	if f.Board.Chip != "" {
		add(FlagChip, f.Board.Chip)
	}
	if f.Board.Header != "" {
		add(FlagHeader, f.Board.Header)
	}
	if f.Board.Acquire != "" {
		add(FlagAcquire, f.Board.Acquire)
	}
	if f.Board.ReadbackOutputs != nil && *f.Board.ReadbackOutputs {
		args = append(args, "--"+FlagReadbackOutputs)
	}
	if f.Events.MQTTBroker != "" {
		add(FlagMQTTBroker, f.Events.MQTTBroker)
	}
	if f.Events.MQTTTopicPrefix != "" {
		add(FlagMQTTTopicPrefix, f.Events.MQTTTopicPrefix)
	}
	return args
}
