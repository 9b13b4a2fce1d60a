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

package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Change of the level of a line, caused by a set operation.
type Change struct {
	// Logical identifier of the line
	Pin string `json:"pin"`
	// New level (high|low)
	Level string `json:"level"`
	// Time of the change
	Time time.Time `json:"time"`
}

// Publisher sends line changes to interested parties.
// Publish must not block.
type Publisher interface {
	Publish(change Change)
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops all changes.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(Change) {}

// MQTTConfig holds the settings of the MQTT publisher.
type MQTTConfig struct {
	// Broker URL, e.g. tcp://localhost:1883
	Broker string
	// Client ID used to connect
	ClientID string
	// Changes are published to <TopicPrefix>/<pin>/state
	TopicPrefix string
}

// MQTTPublisher publishes changes to an MQTT broker.
type MQTTPublisher struct {
	log    zerolog.Logger
	config MQTTConfig
	client mqttapi.Client
	queue  chan Change
}

const (
	mqttQueueSize      = 64
	mqttPublishTimeout = time.Millisecond * 500
	mqttConnectTimeout = time.Second * 5
)

var _ Publisher = &MQTTPublisher{}

// NewMQTTPublisher creates a publisher for the given broker.
// Call Run to connect and start publishing.
func NewMQTTPublisher(config MQTTConfig, log zerolog.Logger) (*MQTTPublisher, error) {
	if config.Broker == "" {
		return nil, errors.New("MQTT broker is empty")
	}
	config.TopicPrefix = strings.TrimSuffix(config.TopicPrefix, "/")
	opts := mqttapi.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(mqttConnectTimeout)
	p := &MQTTPublisher{
		log:   log.With().Str("component", "mqtt-publisher").Logger(),
		queue: make(chan Change, mqttQueueSize),
	}
	p.config = config
	opts.SetOnConnectHandler(func(c mqttapi.Client) {
		p.log.Debug().Str("broker", config.Broker).Msg("Connected to MQTT")
	})
	opts.SetConnectionLostHandler(func(c mqttapi.Client, err error) {
		p.log.Warn().Err(err).Msg("Lost connection to MQTT")
	})
	p.client = mqttapi.NewClient(opts)
	return p, nil
}

// Topic returns the state topic of the given pin.
func (p *MQTTPublisher) Topic(pin string) string {
	if p.config.TopicPrefix == "" {
		return pin + "/state"
	}
	return p.config.TopicPrefix + "/" + pin + "/state"
}

// Publish queues the given change.
// When the queue is full, the oldest change is dropped.
func (p *MQTTPublisher) Publish(change Change) {
	for attempt := 0; attempt < 10; attempt++ {
		select {
		case p.queue <- change:
			return
		default:
			// Queue full; Take 1 out and try again
			select {
			case <-p.queue:
			default:
			}
		}
	}
}

// Run connects to the broker and publishes queued changes until
// the given context is canceled.
func (p *MQTTPublisher) Run(ctx context.Context) error {
	p.client.Connect()
	defer p.client.Disconnect(250)

	for {
		select {
		case change := <-p.queue:
			if err := p.publish(change); err != nil {
				p.log.Warn().Err(err).Str("pin", change.Pin).Msg("Failed to publish change")
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// encodeChange returns the MQTT payload of the given change:
// {"pin":"4","level":"high","time":"<RFC 3339>"}
func encodeChange(change Change) ([]byte, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return payload, nil
}

func (p *MQTTPublisher) publish(change Change) error {
	payload, err := encodeChange(change)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.Topic(change.Pin), 0, true, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errors.Errorf("publish to %s timed out", p.Topic(change.Pin))
	}
	return token.Error()
}
