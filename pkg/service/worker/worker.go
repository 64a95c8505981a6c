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

package worker

import (
	"context"
	"sync"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/bridge"
	"github.com/binkynet/LedWorker/pkg/service/devices"
	"github.com/binkynet/LedWorker/pkg/service/effects"
	"github.com/binkynet/LedWorker/pkg/service/requests"
)

// Service contains the API exposed by the worker service
type Service interface {
	// Run the worker service until the given context is cancelled.
	// When Run returns, all outputs are off and released.
	Run(ctx context.Context) error
	// Submit validates the given request and starts it, preempting
	// the running effect (if any).
	// Submit does not wait for the effect to finish.
	Submit(ctx context.Context, req model.EffectRequest) error
	// State returns the current state of the LED.
	State() model.State
	// Mode returns the mode of the driver.
	Mode() model.DriverMode
}

type Config struct {
	model.LEDConfiguration
}

type Dependencies struct {
	Log    zerolog.Logger
	Bridge bridge.API
	// Requests is used to receive requests and publish states (optional)
	Requests requests.Service
	// Delayer used between effect steps (optional)
	Delayer effects.Delayer
}

// executor runs a single prepared effect request on the driver.
type executor func(ctx context.Context, req model.EffectRequest) error

type service struct {
	config Config
	Dependencies
	driver  devices.Device
	execute executor
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	once    sync.Once

	mutex      sync.Mutex
	baseCtx    context.Context
	baseCancel context.CancelFunc
	cancel     context.CancelFunc
	generation uint64
	effect     model.EffectType
	running    bool
	closed     bool
}

// NewService instantiates a new Service.
// The driver outputs are claimed immediately; a claim failure is
// a configuration error.
func NewService(config Config, deps Dependencies) (Service, error) {
	if err := config.Mode.Validate(); err != nil {
		return nil, maskAny(err)
	}
	if deps.Delayer == nil {
		deps.Delayer = effects.TimerDelayer
	}
	deps.Log = deps.Log.With().Str("component", "worker").Logger()
	s := &service{
		config:       config,
		Dependencies: deps,
		sem:          semaphore.NewWeighted(1),
	}
	s.baseCtx, s.baseCancel = context.WithCancel(context.Background())
	devDeps := devices.Dependencies{
		Log:      deps.Log,
		Bridge:   deps.Bridge,
		OnChange: s.onDriverChange,
	}
	switch config.Mode {
	case model.DriverModePWM:
		d, err := devices.NewDimmableColorDriver(devices.DimmableConfig{
			Pins:      config.Pins(),
			Frequency: config.Frequency,
			MaxDuty:   config.MaxDuty,
			ActiveLow: config.ActiveLow,
		}, devDeps)
		if err != nil {
			return nil, maskAny(err)
		}
		engine := effects.NewEngine(deps.Log, d, deps.Delayer)
		s.driver = d
		s.execute = func(ctx context.Context, req model.EffectRequest) error {
			return effects.Run(ctx, engine, req)
		}
	case model.DriverModeBinary:
		d, err := devices.NewBinaryColorDriver(devices.BinaryConfig{
			Pins:      config.Pins(),
			ActiveLow: config.ActiveLow,
		}, devDeps)
		if err != nil {
			return nil, maskAny(err)
		}
		s.driver = d
		s.execute = func(ctx context.Context, req model.EffectRequest) error {
			return effects.RunBinary(ctx, d, deps.Delayer, req)
		}
	}
	return s, nil
}

// Run the worker service until the given context is cancelled.
func (s *service) Run(ctx context.Context) error {
	log := s.Log
	defer s.shutdown()

	log.Debug().Str("mode", string(s.config.Mode)).Msg("configure driver")
	if err := s.driver.Configure(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to configure driver")
		return errors.Wrap(err, "Configure failed")
	}
	// Stop fast if context canceled
	if ctx.Err() != nil {
		return nil
	}

	if rs := s.Requests; rs != nil {
		leave := rs.RegisterEffectRequestReceiver(s.Submit)
		defer leave()
	}
	if t := s.config.InitialEffect; t != "" {
		if err := s.Submit(ctx, model.EffectRequest{Type: t}); err != nil {
			log.Warn().Err(err).Str("effect", string(t)).Msg("Failed to start initial effect")
		}
	}

	<-ctx.Done()
	log.Debug().Msg("worker stopping")
	return nil
}

// Submit validates the given request and starts it.
func (s *service) Submit(ctx context.Context, req model.EffectRequest) error {
	req, err := effects.Prepare(req, s.driver.Mode())
	if err != nil {
		return err
	}
	requestsTotal.WithLabelValues(string(req.Type)).Inc()

	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return errors.WithStack(model.ErrAlreadyReleased)
	}
	if s.cancel != nil {
		// Preempt running (or waiting) effect
		s.cancel()
		if s.running {
			preemptionsTotal.Inc()
		}
	}
	ectx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.wg.Add(1)
	s.mutex.Unlock()

	go s.run(s.Log.WithContext(ectx), gen, req)
	return nil
}

// run waits for the running effect to return and then executes
// the given request, unless it has been preempted already.
func (s *service) run(ctx context.Context, gen uint64, req model.EffectRequest) {
	defer s.wg.Done()
	log := s.Log.With().Str("effect", string(req.Type)).Uint64("generation", gen).Logger()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		log.Debug().Msg("Effect preempted before start")
		return
	}
	defer s.sem.Release(1)
	if ctx.Err() != nil {
		log.Debug().Msg("Effect preempted before start")
		return
	}

	info, _ := req.Type.Info()
	s.setRunning(gen, req.Type, info.Timed)
	log.Debug().Msg("Effect starting")
	err := s.execute(ctx, req)
	s.setRunning(gen, req.Type, false)
	switch {
	case err == nil:
		log.Debug().Msg("Effect finished")
	case effects.IsInterrupted(err):
		log.Debug().Msg("Effect interrupted")
	default:
		effectErrorsTotal.WithLabelValues(string(req.Type)).Inc()
		log.Error().Err(err).Msg("Effect failed")
	}
}

// setRunning updates the effect state when the given generation
// is still the latest.
func (s *service) setRunning(gen uint64, t model.EffectType, running bool) {
	s.mutex.Lock()
	if gen != s.generation {
		s.mutex.Unlock()
		return
	}
	changed := s.effect != t || s.running != running
	s.effect = t
	s.running = running
	s.mutex.Unlock()

	if running {
		runningGauge.Set(1)
	} else {
		runningGauge.Set(0)
	}
	if changed {
		s.publishState(s.State())
	}
}

// shutdown cancels the running effect, waits for it to return,
// and turns off & releases the driver.
func (s *service) shutdown() {
	s.mutex.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.baseCancel()
	s.mutex.Unlock()

	s.wg.Wait()
	if err := s.cleanup(); err != nil {
		s.Log.Error().Err(err).Msg("Failed to release driver")
	}
}

// cleanup turns the driver off and releases it.
// Only the first call has any effect.
func (s *service) cleanup() error {
	var result error
	s.once.Do(func() {
		ctx := context.Background()
		var ae aerr.AggregateError
		if err := s.driver.Off(ctx); err != nil {
			ae.Add(errors.Wrap(err, "Off failed"))
		}
		if err := s.driver.Close(ctx); err != nil {
			ae.Add(errors.Wrap(err, "Close failed"))
		}
		s.Log.Info().Msg("LED turned off and released")
		result = ae.AsError()
	})
	return result
}

// State returns the current state of the LED.
func (s *service) State() model.State {
	state := s.driver.State()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	state.Effect = s.effect
	state.Running = s.running
	return state
}

// Mode returns the mode of the driver.
func (s *service) Mode() model.DriverMode {
	return s.driver.Mode()
}

// onDriverChange is called by the driver after every committed change.
func (s *service) onDriverChange(state model.State) {
	s.mutex.Lock()
	state.Effect = s.effect
	state.Running = s.running
	s.mutex.Unlock()
	s.publishState(state)
}

func (s *service) publishState(state model.State) {
	if rs := s.Requests; rs != nil {
		rs.PublishState(state)
	}
}
