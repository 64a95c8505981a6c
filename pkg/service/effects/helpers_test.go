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

package effects

import (
	"context"
	"sync"
	"time"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/devices"
)

// recordingDelayer records all delays without waiting.
// When cancelAfter > 0, cancel is called once that many delays have been requested.
type recordingDelayer struct {
	mutex       sync.Mutex
	delays      []time.Duration
	cancelAfter int
	cancel      context.CancelFunc
}

func (r *recordingDelayer) Delay(ctx context.Context, d time.Duration) error {
	r.mutex.Lock()
	r.delays = append(r.delays, d)
	if r.cancelAfter > 0 && len(r.delays) >= r.cancelAfter && r.cancel != nil {
		r.cancel()
	}
	r.mutex.Unlock()
	return ctx.Err()
}

func (r *recordingDelayer) Delays() []time.Duration {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// recordingDriver is a dimmable driver that records every committed brightness.
type recordingDriver struct {
	mutex    sync.Mutex
	maxDuty  int
	history  []model.Brightness
	rgb      []model.RGB
	duty     [3]int
	released bool
}

var _ devices.DimmableColorDriver = &recordingDriver{}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{maxDuty: model.DefaultMaxDuty}
}

func (d *recordingDriver) Configure(ctx context.Context) error { return d.Off(ctx) }
func (d *recordingDriver) Off(ctx context.Context) error {
	return d.SetBrightness(ctx, model.Off)
}
func (d *recordingDriver) Close(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.released {
		return model.ErrAlreadyReleased
	}
	d.released = true
	d.duty = [3]int{}
	return nil
}
func (d *recordingDriver) Mode() model.DriverMode { return model.DriverModePWM }
func (d *recordingDriver) State() model.State {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return model.State{Mode: model.DriverModePWM, Duty: d.duty, MaxDuty: d.maxDuty}
}

func (d *recordingDriver) SetBrightness(ctx context.Context, b model.Brightness) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.released {
		return model.ErrAlreadyReleased
	}
	d.history = append(d.history, b)
	d.duty = b.Duty(d.maxDuty)
	return nil
}

func (d *recordingDriver) SetColorRGB(ctx context.Context, c model.RGB) error {
	d.mutex.Lock()
	d.rgb = append(d.rgb, c)
	d.mutex.Unlock()
	return d.SetBrightness(ctx, c.Brightness())
}

func (d *recordingDriver) RedOn(ctx context.Context, p float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(p, 0, 0))
}
func (d *recordingDriver) GreenOn(ctx context.Context, p float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(0, p, 0))
}
func (d *recordingDriver) BlueOn(ctx context.Context, p float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(0, 0, p))
}
func (d *recordingDriver) WhiteOn(ctx context.Context, p float64) error {
	return d.SetBrightness(ctx, model.NewBrightness(p, p, p))
}

func (d *recordingDriver) Brightness() model.Brightness {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return model.BrightnessFromDuty(d.duty, d.maxDuty)
}
func (d *recordingDriver) Duty() [3]int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.duty
}
func (d *recordingDriver) DutyCycles(ctx context.Context) ([3]int, error) { return d.Duty(), nil }
func (d *recordingDriver) MaxDuty() int                                   { return d.maxDuty }

func (d *recordingDriver) History() []model.Brightness {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]model.Brightness(nil), d.history...)
}

func (d *recordingDriver) Colors() []model.RGB {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]model.RGB(nil), d.rgb...)
}

// recordingSetter records binary colors.
type recordingSetter struct {
	mutex  sync.Mutex
	colors []model.BinaryColor
}

func (s *recordingSetter) SetColor(ctx context.Context, c model.BinaryColor) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.colors = append(s.colors, c)
	return nil
}

func (s *recordingSetter) Colors() []model.BinaryColor {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]model.BinaryColor(nil), s.colors...)
}
