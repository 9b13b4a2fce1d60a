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
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMQTTPublisherTopic(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"hypibole", "hypibole/4/state"},
		{"hypibole/", "hypibole/4/state"},
		{"", "4/state"},
	}
	for _, test := range tests {
		p, err := NewMQTTPublisher(MQTTConfig{
			Broker:      "tcp://127.0.0.1:1883",
			ClientID:    "test",
			TopicPrefix: test.prefix,
		}, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewMQTTPublisher failed: %v", err)
		}
		if topic := p.Topic("4"); topic != test.expected {
			t.Errorf("Expected topic %q, got %q", test.expected, topic)
		}
	}
}

func TestMQTTPublisherRequiresBroker(t *testing.T) {
	if _, err := NewMQTTPublisher(MQTTConfig{}, zerolog.Nop()); err == nil {
		t.Error("Expected error")
	}
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	p, err := NewMQTTPublisher(MQTTConfig{Broker: "tcp://127.0.0.1:1883"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewMQTTPublisher failed: %v", err)
	}
	for i := 0; i < mqttQueueSize+10; i++ {
		p.Publish(Change{Pin: "4", Level: "high"})
	}
	if len(p.queue) != mqttQueueSize {
		t.Errorf("Expected full queue, got %d", len(p.queue))
	}
}

func TestNopPublisher(t *testing.T) {
	NewNopPublisher().Publish(Change{Pin: "4", Level: "low"})
}

func TestEncodeChange(t *testing.T) {
	payload, err := encodeChange(Change{
		Pin:   "4",
		Level: "high",
		Time:  time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("encodeChange failed: %v", err)
	}
	expected := `{"pin":"4","level":"high","time":"2026-10-17T12:30:00Z"}`
	if string(payload) != expected {
		t.Errorf("Expected %s, got %s", expected, payload)
	}
}
