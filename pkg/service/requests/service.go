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

package requests

import (
	"context"
	"sync"

	"github.com/mattn/go-pubsub"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
)

const (
	// Number of effect requests queued per receiver
	effectRequestQueueSize = 32
)

// Service fans out effect requests to the worker and state changes
// of the worker to listeners.
// Effect requests reach every receiver in publication order.
// State delivery is asynchronous and unordered.
type Service interface {
	// PublishEffectRequest queues an effect request for all receivers.
	PublishEffectRequest(context.Context, model.EffectRequest) error
	// PublishState publishes a state change to all receivers.
	PublishState(model.State)

	// RegisterEffectRequestReceiver registers a callback for effect requests.
	// Callbacks of a receiver are invoked one at a time.
	// Call the returned function to unregister.
	RegisterEffectRequestReceiver(cb func(context.Context, model.EffectRequest) error) context.CancelFunc
	// RegisterStateReceiver registers a callback for state changes.
	// Call the returned function to unregister.
	RegisterStateReceiver(cb func(model.State)) context.CancelFunc
	// Close stops all deliveries.
	Close()
}

type service struct {
	log       zerolog.Logger
	states    *pubsub.PubSub
	mutex     sync.Mutex
	receivers map[*effectRequestReceiver]struct{}
	closed    bool
}

// effectRequestReceiver delivers queued requests to a single callback.
type effectRequestReceiver struct {
	queue chan model.EffectRequest
	done  chan struct{}
	once  sync.Once
}

func (r *effectRequestReceiver) stop() {
	r.once.Do(func() { close(r.done) })
}

// NewService creates a new request service.
func NewService(log zerolog.Logger) Service {
	return &service{
		log:       log.With().Str("component", "requests").Logger(),
		states:    pubsub.New(),
		receivers: make(map[*effectRequestReceiver]struct{}),
	}
}

// PublishEffectRequest queues an effect request for all receivers.
// It blocks while the queue of a receiver is full.
func (s *service) PublishEffectRequest(ctx context.Context, req model.EffectRequest) error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return errors.WithStack(model.ErrAlreadyReleased)
	}
	receivers := make([]*effectRequestReceiver, 0, len(s.receivers))
	for r := range s.receivers {
		receivers = append(receivers, r)
	}
	s.mutex.Unlock()

	s.log.Debug().Str("effect", string(req.Type)).Msg("Publish effect request")
	for _, r := range receivers {
		select {
		case r.queue <- req:
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// PublishState publishes a state change to all receivers.
func (s *service) PublishState(state model.State) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.closed {
		s.states.Pub(state)
	}
}

// RegisterEffectRequestReceiver registers a callback for effect requests.
func (s *service) RegisterEffectRequestReceiver(cb func(context.Context, model.EffectRequest) error) context.CancelFunc {
	r := &effectRequestReceiver{
		queue: make(chan model.EffectRequest, effectRequestQueueSize),
		done:  make(chan struct{}),
	}
	s.mutex.Lock()
	if s.closed {
		r.stop()
	} else {
		s.receivers[r] = struct{}{}
	}
	s.mutex.Unlock()

	go func() {
		for {
			select {
			case req := <-r.queue:
				if err := cb(context.Background(), req); err != nil {
					s.log.Warn().Err(err).Str("effect", string(req.Type)).Msg("Effect request processing error")
				}
			case <-r.done:
				return
			}
		}
	}()
	return func() {
		s.mutex.Lock()
		delete(s.receivers, r)
		s.mutex.Unlock()
		r.stop()
	}
}

// RegisterStateReceiver registers a callback for state changes.
func (s *service) RegisterStateReceiver(cb func(model.State)) context.CancelFunc {
	wcb := func(x model.State) {
		cb(x)
	}
	s.states.Sub(wcb)
	return func() {
		s.states.Leave(wcb)
	}
}

// Close stops all deliveries.
// Publishing after Close has no effect.
func (s *service) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for r := range s.receivers {
		r.stop()
	}
	clear(s.receivers)
	s.states.Close()
}
