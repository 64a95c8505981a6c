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
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/bridge"
	"github.com/binkynet/LedWorker/pkg/service/devices"
)

func TestRunColor(t *testing.T) {
	ctx := context.Background()
	e, d, _ := newTestEngine()

	require.NoError(t, Run(ctx, e, model.EffectRequest{
		Type:  model.EffectTypeColor,
		Color: model.ColorValue{Red: 128, Green: 64, Blue: 192},
	}))
	assert.Equal(t, [3]int{514, 257, 770}, d.Duty())

	require.NoError(t, Run(ctx, e, model.EffectRequest{
		Type:  model.EffectTypeColor,
		Color: model.ColorValue{Red: 300, Green: -5, Blue: 0},
	}))
	assert.Equal(t, [3]int{1023, 0, 0}, d.Duty())
}

func TestRunSingleChannel(t *testing.T) {
	ctx := context.Background()
	e, d, _ := newTestEngine()

	require.NoError(t, Run(ctx, e, model.EffectRequest{Type: model.EffectTypeGreen}))
	assert.Equal(t, [3]int{0, 1023, 0}, d.Duty())

	level := 50.0
	require.NoError(t, Run(ctx, e, model.EffectRequest{Type: model.EffectTypeWhite, Level: &level}))
	assert.Equal(t, [3]int{512, 512, 512}, d.Duty())

	require.NoError(t, Run(ctx, e, model.EffectRequest{Type: model.EffectTypeOff}))
	assert.Equal(t, [3]int{0, 0, 0}, d.Duty())
}

func TestRunFadeDefaults(t *testing.T) {
	ctx := context.Background()
	e, d, delayer := newTestEngine()

	require.NoError(t, Run(ctx, e, model.EffectRequest{
		Type:  model.EffectTypeFadeIn,
		Color: model.ColorValue{Blue: 255},
	}))
	history := d.History()
	require.Len(t, history, model.DefaultFadeSteps+1)
	assert.Equal(t, model.NewBrightness(0, 0, 100), history[model.DefaultFadeSteps])
	assert.Equal(t, 20*time.Millisecond, delayer.Delays()[0])

	require.NoError(t, Run(ctx, e, model.EffectRequest{Type: model.EffectTypeFadeOut}))
	assert.Equal(t, [3]int{0, 0, 0}, d.Duty())
}

func TestRunInvalid(t *testing.T) {
	ctx := context.Background()
	e, d, _ := newTestEngine()

	assert.True(t, model.IsInvalidArgument(Run(ctx, e, model.EffectRequest{Type: "sparkle"})))
	assert.True(t, model.IsInvalidArgument(Run(ctx, e, model.EffectRequest{Type: model.EffectTypeRainbow, Steps: -1})))
	assert.True(t, model.IsInvalidArgument(Run(ctx, e, model.EffectRequest{Type: model.EffectTypeBreathing, Cycles: -2})))
	assert.Empty(t, d.History())
}

func TestRunBinary(t *testing.T) {
	ctx := context.Background()
	br := bridge.NewVirtualBridge()
	pins := model.RGBPins{Red: "1", Green: "2", Blue: "3"}
	d, err := devices.NewBinaryColorDriver(devices.BinaryConfig{Pins: pins}, devices.Dependencies{Log: zerolog.Nop(), Bridge: br})
	require.NoError(t, err)

	require.NoError(t, RunBinary(ctx, d, nil, model.EffectRequest{
		Type:  model.EffectTypeColor,
		Color: model.ColorValue{Red: 200, Green: 100, Blue: 128},
	}))
	assert.Equal(t, model.BinaryMagenta, d.Color())

	require.NoError(t, RunBinary(ctx, d, nil, model.EffectRequest{Type: model.EffectTypeBlue}))
	assert.Equal(t, model.BinaryBlue, d.Color())

	require.NoError(t, RunBinary(ctx, d, &recordingDelayer{}, model.EffectRequest{Type: model.EffectTypeCombinations}))
	assert.Equal(t, model.BinaryOff, d.Color())

	for _, typ := range []model.EffectType{model.EffectTypeFadeIn, model.EffectTypeBrightness, model.EffectTypeRainbow} {
		err := RunBinary(ctx, d, nil, model.EffectRequest{Type: typ})
		assert.True(t, model.IsUnsupported(err), "type %s", typ)
	}
}

func TestPrepare(t *testing.T) {
	req, err := Prepare(model.EffectRequest{Type: model.EffectTypeBreathing}, model.DriverModePWM)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultBreathingCycles, req.Cycles)
	assert.Equal(t, model.DefaultBreathingDurationMs, req.DurationMs)

	_, err = Prepare(model.EffectRequest{Type: model.EffectTypeGradient}, model.DriverModeBinary)
	assert.True(t, model.IsUnsupported(err))
}
