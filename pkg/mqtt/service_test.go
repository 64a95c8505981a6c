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
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/requests"
)

type recordingRequests struct {
	mutex    sync.Mutex
	requests []model.EffectRequest
}

func (r *recordingRequests) PublishEffectRequest(ctx context.Context, req model.EffectRequest) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.requests = append(r.requests, req)
	return nil
}

func (r *recordingRequests) PublishState(model.State) {}

func (r *recordingRequests) RegisterEffectRequestReceiver(cb func(context.Context, model.EffectRequest) error) context.CancelFunc {
	return func() {}
}

func (r *recordingRequests) RegisterStateReceiver(cb func(model.State)) context.CancelFunc {
	return func() {}
}

func (r *recordingRequests) Close() {}

func TestParseEffectRequest(t *testing.T) {
	req, err := ParseEffectRequest([]byte(`{"type":"color","color":{"red":128,"green":64,"blue":192}}`))
	require.NoError(t, err)
	assert.Equal(t, model.EffectTypeColor, req.Type)
	assert.Equal(t, model.ColorValue{Red: 128, Green: 64, Blue: 192}, req.Color)

	req, err = ParseEffectRequest([]byte(" Rainbow\n"))
	require.NoError(t, err)
	assert.Equal(t, model.EffectTypeRainbow, req.Type)

	req, err = ParseEffectRequest([]byte(`"off"`))
	require.NoError(t, err)
	assert.Equal(t, model.EffectTypeOff, req.Type)

	_, err = ParseEffectRequest([]byte(`{"type":`))
	assert.True(t, model.IsInvalidArgument(err))
	_, err = ParseEffectRequest([]byte(`sparkle`))
	assert.True(t, model.IsInvalidArgument(err))
	_, err = ParseEffectRequest(nil)
	assert.True(t, model.IsInvalidArgument(err))
}

func TestHandleSet(t *testing.T) {
	rs := &recordingRequests{}
	s, err := NewService(Config{BrokerAddress: "localhost:1883", TopicPrefix: "leds/desk/"},
		Dependencies{Log: zerolog.Nop(), Requests: rs})
	require.NoError(t, err)
	impl := s.(*service)

	impl.handleSet(context.Background(), s.Topic(TopicSet), []byte(`{"type":"fade-in","steps":10}`))
	impl.handleSet(context.Background(), s.Topic(TopicSet), []byte(`bogus`))
	require.Len(t, rs.requests, 1)
	assert.Equal(t, model.EffectTypeFadeIn, rs.requests[0].Type)
	assert.Equal(t, 10, rs.requests[0].Steps)
}

func TestHandleSetKeepsOrder(t *testing.T) {
	rs := requests.NewService(zerolog.Nop())
	defer rs.Close()
	received := make(chan model.EffectType, 4)
	leave := rs.RegisterEffectRequestReceiver(func(ctx context.Context, req model.EffectRequest) error {
		received <- req.Type
		return nil
	})
	defer leave()
	s, err := NewService(Config{BrokerAddress: "localhost:1883", TopicPrefix: "leds"},
		Dependencies{Log: zerolog.Nop(), Requests: rs})
	require.NoError(t, err)
	impl := s.(*service)

	expected := []model.EffectType{model.EffectTypeWhite, model.EffectTypeOff, model.EffectTypeRed, model.EffectTypeOff}
	for _, t1 := range expected {
		impl.handleSet(context.Background(), s.Topic(TopicSet), []byte(t1))
	}
	for _, t1 := range expected {
		select {
		case actual := <-received:
			assert.Equal(t, t1, actual)
		case <-time.After(5 * time.Second):
			t.Fatal("effect request not delivered")
		}
	}
}

func TestNewService(t *testing.T) {
	s, err := NewService(Config{BrokerAddress: "localhost:1883", TopicPrefix: "leds/desk/"}, Dependencies{Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, "leds/desk/set", s.Topic(TopicSet))
	assert.Equal(t, "leds/desk/state", s.Topic(TopicState))
	assert.Equal(t, "leds/desk", s.(*service).ClientID)

	err = s.Publish(context.Background(), model.State{}, s.Topic(TopicState), true)
	assert.Error(t, err)

	_, err = NewService(Config{TopicPrefix: "x"}, Dependencies{})
	assert.True(t, model.IsValidation(err))
	_, err = NewService(Config{BrokerAddress: "localhost:1883", TopicPrefix: "/"}, Dependencies{})
	assert.True(t, model.IsValidation(err))
}
