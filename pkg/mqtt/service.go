// Copyright 2025 Ewout Prangsma
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

package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/requests"
	"github.com/binkynet/LedWorker/pkg/service/util"
)

const (
	// TopicSet receives effect requests
	TopicSet = "set"
	// TopicState carries the state of the LED
	TopicState = "state"
	// TopicLog carries log messages
	TopicLog = "log"

	mqttPublishTimeout = time.Millisecond * 200
	mqttConnectTimeout = time.Second * 10
)

// Service contains the API exposed by the MQTT service
type Service interface {
	// Run the service until the given context is canceled.
	Run(ctx context.Context) error
	// Publish the given payload as JSON on the given topic.
	Publish(ctx context.Context, payload interface{}, topic string, retained bool) error
	// Topic returns the full topic name for the given suffix.
	Topic(suffix string) string
}

// StateProvider provides the current state of the LED.
type StateProvider interface {
	State() model.State
}

type Config struct {
	// Address (host:port) of the broker
	BrokerAddress string
	ClientID      string
	UserName      string
	Password      string
	// Prefix of all topics
	TopicPrefix string
}

type Dependencies struct {
	Log      zerolog.Logger
	Requests requests.Service
	States   StateProvider
}

type service struct {
	Config
	Dependencies
	mutex  sync.Mutex
	client mqttapi.Client
}

// NewService creates a new MQTT service.
func NewService(config Config, deps Dependencies) (Service, error) {
	if config.BrokerAddress == "" {
		return nil, errors.Wrap(model.ValidationError, "BrokerAddress is empty")
	}
	config.TopicPrefix = strings.TrimSuffix(config.TopicPrefix, "/")
	if config.TopicPrefix == "" {
		return nil, errors.Wrap(model.ValidationError, "TopicPrefix is empty")
	}
	if config.ClientID == "" {
		config.ClientID = config.TopicPrefix
	}
	deps.Log = deps.Log.With().Str("component", "mqtt").Logger()
	return &service{
		Config:       config,
		Dependencies: deps,
	}, nil
}

// Topic returns the full topic name for the given suffix.
func (s *service) Topic(suffix string) string {
	return s.TopicPrefix + "/" + suffix
}

// Run the service until the given context is canceled.
// Lost connections are re-established.
func (s *service) Run(ctx context.Context) error {
	return util.UntilCanceled(ctx, s.Log, "MQTT session", func() error {
		return s.runSession(ctx)
	})
}

// runSession connects to the broker and serves until the connection is
// lost or the given context is canceled.
func (s *service) runSession(ctx context.Context) error {
	lost := make(chan error, 1)
	opts := mqttapi.NewClientOptions().
		AddBroker("tcp://" + s.BrokerAddress).
		SetClientID(s.ClientID)
	if s.UserName != "" {
		opts.SetUsername(s.UserName)
		opts.SetPassword(s.Password)
	}
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	// Effect requests must reach the worker in arrival order
	opts.SetOrderMatters(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetDefaultPublishHandler(func(c mqttapi.Client, m mqttapi.Message) {
		// Ignore messages when no subscription match
	})
	opts.SetConnectionLostHandler(func(c mqttapi.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})

	// Connect client
	client := mqttapi.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "failed to connect to mqtt broker '%s'", s.BrokerAddress)
	}
	defer client.Disconnect(250)
	setTopic := s.Topic(TopicSet)
	if token := client.Subscribe(setTopic, 0, s.onSetMessage); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "failed to subscribe to '%s'", setTopic)
	}
	s.mutex.Lock()
	s.client = client
	s.mutex.Unlock()
	defer func() {
		s.mutex.Lock()
		s.client = nil
		s.mutex.Unlock()
	}()
	s.Log.Info().Str("broker", s.BrokerAddress).Str("topic", setTopic).Msg("Connected to MQTT broker")

	// Publish state changes
	changed := make(chan struct{}, 1)
	if rs := s.Requests; rs != nil {
		leave := rs.RegisterStateReceiver(func(model.State) {
			select {
			case changed <- struct{}{}:
			default:
				// Already pending
			}
		})
		defer leave()
	}
	s.publishState(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-lost:
			return errors.Wrap(err, "connection lost")
		case <-changed:
			s.publishState(ctx)
		}
	}
}

// publishState publishes the current state (if any).
func (s *service) publishState(ctx context.Context) {
	if s.States == nil {
		return
	}
	if err := s.Publish(ctx, s.States.State(), s.Topic(TopicState), true); err != nil {
		s.Log.Warn().Err(err).Msg("Failed to publish state")
	}
}

// Publish the given payload as JSON on the given topic.
func (s *service) Publish(ctx context.Context, payload interface{}, topic string, retained bool) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode payload")
	}
	s.mutex.Lock()
	client := s.client
	s.mutex.Unlock()
	if client == nil {
		return errors.New("not connected")
	}
	token := client.Publish(topic, 0, retained, encoded)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errors.Errorf("failed to deliver message on '%s' in time", topic)
	}
	return token.Error()
}

// onSetMessage handles an effect request message.
func (s *service) onSetMessage(client mqttapi.Client, msg mqttapi.Message) {
	s.handleSet(context.Background(), msg.Topic(), msg.Payload())
}

func (s *service) handleSet(ctx context.Context, topic string, payload []byte) {
	log := s.Log.With().Str("topic", topic).Logger()
	req, err := ParseEffectRequest(payload)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid effect request")
		return
	}
	if rs := s.Requests; rs != nil {
		if err := rs.PublishEffectRequest(ctx, req); err != nil {
			log.Warn().Err(err).Msg("Failed to publish effect request")
		}
	}
}

// ParseEffectRequest parses a message payload into an effect request.
// Besides a JSON object, a bare effect type (e.g. "rainbow") is accepted.
func ParseEffectRequest(payload []byte) (model.EffectRequest, error) {
	var req model.EffectRequest
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return req, model.InvalidArgument("empty payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		req.Type = model.EffectType(strings.ToLower(strings.Trim(trimmed, `"`)))
	} else if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
		return req, model.InvalidArgument("invalid JSON payload: %s", err.Error())
	}
	if err := req.Type.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
