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
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/hypibole/hypibole/pkg/board"
	"github.com/hypibole/hypibole/pkg/registry"
)

// Names of command line flags
const (
	FlagLevel           = "level"
	FlagConfig          = "config"
	FlagAddress         = "address"
	FlagHost            = "host"
	FlagPort            = "port"
	FlagGets            = "gets"
	FlagSets            = "sets"
	FlagSimGets         = "simgets"
	FlagSimSets         = "simsets"
	FlagDriver          = "driver"
	FlagChip            = "chip"
	FlagHeader          = "header"
	FlagAcquire         = "acquire"
	FlagReadbackOutputs = "readback-outputs"
	FlagMQTTBroker      = "mqtt-broker"
	FlagMQTTTopicPrefix = "mqtt-topic-prefix"
)

const (
	// DriverAuto selects a driver based on the environment.
	DriverAuto = "auto"

	defaultAddress     = "0.0.0.0"
	defaultPort        = 8080
	defaultTopicPrefix = "hypibole"
)

// Config of the service, built from command line flags and an
// optional config file.
type Config struct {
	LogLevel string
	File     string

	Address string
	Port    int

	// Comma separated lists of GPIO indices
	Gets    string
	Sets    string
	SimGets string
	SimSets string

	Driver          string
	Chip            string
	Header          string
	Acquire         string
	ReadbackOutputs bool

	MQTTBroker      string
	MQTTTopicPrefix string
}

// AddFlags registers the command line flags for all settings.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(normalizeFlagName)
	fs.StringVarP(&c.LogLevel, FlagLevel, "l", "info", "Set log level")
	fs.StringVarP(&c.File, FlagConfig, "c", "", "Path of TOML config file")
	fs.StringVarP(&c.Address, FlagAddress, "a", defaultAddress, "Address the HTTP server will listen on (alias --host)")
	fs.IntVarP(&c.Port, FlagPort, "p", defaultPort, "Port the HTTP server will listen on")
	fs.StringVarP(&c.Gets, FlagGets, "g", "", "Comma separated GPIO indices that may be read")
	fs.StringVarP(&c.Sets, FlagSets, "s", "", "Comma separated GPIO indices that may be driven")
	fs.StringVar(&c.SimGets, FlagSimGets, "", "Comma separated simulated GPIO indices that may be read")
	fs.StringVar(&c.SimSets, FlagSimSets, "", "Comma separated simulated GPIO indices that may be driven")
	fs.StringVar(&c.Driver, FlagDriver, DriverAuto, "Hardware driver ("+strings.Join(append([]string{DriverAuto}, board.DriverNames()...), "|")+")")
	fs.StringVar(&c.Chip, FlagChip, board.DefaultChip, "GPIO chip used by the gpiocdev driver")
	fs.StringVar(&c.Header, FlagHeader, "rpi-j8", "Header used for physical pin names (rpi-j8|none)")
	fs.StringVar(&c.Acquire, FlagAcquire, string(board.AcquireEager), "When to acquire lines (eager|lazy)")
	fs.BoolVar(&c.ReadbackOutputs, FlagReadbackOutputs, false, "Get on an output line reads back the driven level")
	fs.StringVar(&c.MQTTBroker, FlagMQTTBroker, "", "MQTT broker that receives level changes (e.g. tcp://localhost:1883)")
	fs.StringVar(&c.MQTTTopicPrefix, FlagMQTTTopicPrefix, defaultTopicPrefix, "Prefix of MQTT topics")
}

// normalizeFlagName maps --host onto --address.
func normalizeFlagName(fs *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == FlagHost {
		name = FlagAddress
	}
	return pflag.NormalizedName(name)
}

// Merge copies settings from the given file that were not set
// explicitly on the command line.
func (c *Config) Merge(f File, fs *pflag.FlagSet) {
	isSet := func(name string) bool {
		return fs != nil && fs.Changed(name)
	}
	setString := func(name string, target *string, value string) {
		if value != "" && !isSet(name) {
			*target = value
		}
	}
	setList := func(name string, target *string, value PinList) {
		if value != nil && !isSet(name) {
			*target = value.String()
		}
	}
	setString(FlagAddress, &c.Address, f.Network.Address)
	if f.Network.Port != 0 && !isSet(FlagPort) {
		c.Port = int(f.Network.Port)
	}
	setList(FlagGets, &c.Gets, f.Board.Gets)
	setList(FlagSets, &c.Sets, f.Board.Sets)
	setList(FlagSimGets, &c.SimGets, f.Board.SimGets)
	setList(FlagSimSets, &c.SimSets, f.Board.SimSets)
	setString(FlagDriver, &c.Driver, f.Board.Driver)
	setString(FlagChip, &c.Chip, f.Board.Chip)
	setString(FlagHeader, &c.Header, f.Board.Header)
	setString(FlagAcquire, &c.Acquire, f.Board.Acquire)
	if f.Board.ReadbackOutputs != nil && !isSet(FlagReadbackOutputs) {
		c.ReadbackOutputs = *f.Board.ReadbackOutputs
	}
	setString(FlagMQTTBroker, &c.MQTTBroker, f.Events.MQTTBroker)
	setString(FlagMQTTTopicPrefix, &c.MQTTTopicPrefix, f.Events.MQTTTopicPrefix)
}

// Load merges the config file (if any) into the configuration and
// validates the result.
func (c *Config) Load(fs *pflag.FlagSet) error {
	if c.File != "" {
		f, err := LoadFile(c.File)
		if err != nil {
			return err
		}
		c.Merge(f, fs)
	}
	return c.Validate()
}

// Whitelist returns the parsed GPIO lists.
func (c Config) Whitelist() (registry.Whitelist, error) {
	var w registry.Whitelist
	for _, x := range []struct {
		name   string
		value  string
		target *[]int
	}{
		{FlagGets, c.Gets, &w.Gets},
		{FlagSets, c.Sets, &w.Sets},
		{FlagSimGets, c.SimGets, &w.SimGets},
		{FlagSimSets, c.SimSets, &w.SimSets},
	} {
		list, err := ParsePinList(x.value)
		if err != nil {
			return registry.Whitelist{}, errors.Wrapf(err, "error parsing %s list", x.name)
		}
		*x.target = list
	}
	return w, nil
}

// Validate the configuration, returning nil on ok,
// or an error upon validation issues.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ValidationError, "invalid log level '%s'", c.LogLevel)
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Wrapf(ValidationError, "port %d out of range", c.Port)
	}
	if _, err := c.Whitelist(); err != nil {
		return maskAny(err)
	}
	driver := strings.ToLower(c.Driver)
	if driver != DriverAuto && !lo.Contains(board.DriverNames(), driver) {
		return errors.Wrapf(ValidationError, "unknown driver '%s'", c.Driver)
	}
	if _, err := board.ParseAcquirePolicy(c.Acquire); err != nil {
		return errors.Wrapf(ValidationError, "unknown acquire policy '%s'", c.Acquire)
	}
	if _, err := registry.HeaderByName(c.Header); err != nil {
		return errors.Wrapf(ValidationError, "unknown header '%s'", c.Header)
	}
	if c.MQTTBroker != "" {
		u, err := url.Parse(c.MQTTBroker)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.Wrapf(ValidationError, "invalid MQTT broker URL '%s'", c.MQTTBroker)
		}
	}
	return nil
}
