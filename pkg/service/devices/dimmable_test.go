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

package devices

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/bridge"
)

var testPins = model.RGBPins{Red: "GPIO17", Green: "GPIO27", Blue: "GPIO22"}

func newTestDimmable(t *testing.T, onChange ChangeListener) (DimmableColorDriver, *bridge.VirtualBridge) {
	br := bridge.NewVirtualBridge()
	d, err := NewDimmableColorDriver(DimmableConfig{
		Pins:      testPins,
		Frequency: 1000,
		MaxDuty:   model.DefaultMaxDuty,
	}, Dependencies{
		Log:      zerolog.Nop(),
		Bridge:   br,
		OnChange: onChange,
	})
	require.NoError(t, err)
	return d, br
}

func pwmPins(t *testing.T, br *bridge.VirtualBridge) [3]*bridge.VirtualPWMPin {
	var result [3]*bridge.VirtualPWMPin
	for i, pin := range testPins.All() {
		p, found := br.PWMPin(pin)
		require.True(t, found, "pin %s", pin)
		result[i] = p
	}
	return result
}

func pinDuties(t *testing.T, br *bridge.VirtualBridge) [3]int {
	var result [3]int
	for i, p := range pwmPins(t, br) {
		duty, err := p.Duty()
		require.NoError(t, err)
		result[i] = duty
	}
	return result
}

func TestDimmableSetColorRGB(t *testing.T) {
	ctx := context.Background()
	d, br := newTestDimmable(t, nil)
	require.NoError(t, d.Configure(ctx))

	require.NoError(t, d.SetColorRGB(ctx, model.RGB{Red: 128, Green: 64, Blue: 192}))
	assert.Equal(t, [3]int{514, 257, 770}, d.Duty())
	assert.Equal(t, [3]int{514, 257, 770}, pinDuties(t, br))

	duty, err := d.DutyCycles(ctx)
	require.NoError(t, err)
	assert.Equal(t, [3]int{514, 257, 770}, duty)
}

func TestDimmableClampsBrightness(t *testing.T) {
	ctx := context.Background()
	d, br := newTestDimmable(t, nil)

	require.NoError(t, d.SetBrightness(ctx, model.NewBrightness(150, -10, 50)))
	assert.Equal(t, [3]int{1023, 0, 512}, pinDuties(t, br))
	b := d.Brightness()
	assert.InDelta(t, 100, b.Red, 0.001)
	assert.InDelta(t, 0, b.Green, 0.001)
	assert.InDelta(t, 50, b.Blue, 0.1)
}

func TestDimmableSingleChannel(t *testing.T) {
	ctx := context.Background()
	d, br := newTestDimmable(t, nil)

	require.NoError(t, d.WhiteOn(ctx, 100))
	assert.Equal(t, [3]int{1023, 1023, 1023}, pinDuties(t, br))
	require.NoError(t, d.RedOn(ctx, 100))
	assert.Equal(t, [3]int{1023, 0, 0}, pinDuties(t, br))
	require.NoError(t, d.GreenOn(ctx, 50))
	assert.Equal(t, [3]int{0, 512, 0}, pinDuties(t, br))
	require.NoError(t, d.BlueOn(ctx, 0))
	assert.Equal(t, [3]int{0, 0, 0}, pinDuties(t, br))
	require.NoError(t, d.WhiteOn(ctx, 200))
	require.NoError(t, d.Off(ctx))
	assert.Equal(t, [3]int{0, 0, 0}, pinDuties(t, br))
}

func TestDimmableOnChange(t *testing.T) {
	ctx := context.Background()
	var states []model.State
	d, _ := newTestDimmable(t, func(s model.State) { states = append(states, s) })

	require.NoError(t, d.RedOn(ctx, 100))
	require.Len(t, states, 1)
	assert.Equal(t, model.DriverModePWM, states[0].Mode)
	assert.Equal(t, [3]int{1023, 0, 0}, states[0].Duty)
	assert.Equal(t, model.DefaultMaxDuty, states[0].MaxDuty)
}

func TestDimmableCloseOnce(t *testing.T) {
	ctx := context.Background()
	d, br := newTestDimmable(t, nil)
	require.NoError(t, d.WhiteOn(ctx, 100))

	require.NoError(t, d.Close(ctx))
	for _, p := range pwmPins(t, br) {
		duty, _ := p.Duty()
		assert.Equal(t, 0, duty)
		assert.Equal(t, 1, p.Releases())
	}
	assert.True(t, d.State().Released)

	err := d.Close(ctx)
	assert.True(t, model.IsAlreadyReleased(err))
	err = d.WhiteOn(ctx, 100)
	assert.True(t, model.IsAlreadyReleased(err))
	_, err = d.DutyCycles(ctx)
	assert.True(t, model.IsAlreadyReleased(err))
	for _, p := range pwmPins(t, br) {
		assert.Equal(t, 1, p.Releases())
	}
}

func TestDimmableCommitError(t *testing.T) {
	ctx := context.Background()
	d, br := newTestDimmable(t, nil)
	require.NoError(t, d.RedOn(ctx, 100))

	pins := pwmPins(t, br)
	pins[1].SetError(errors.New("bus failure"))
	assert.Error(t, d.WhiteOn(ctx, 100))
	pins[1].SetError(nil)
	require.NoError(t, d.Off(ctx))
	assert.Equal(t, [3]int{0, 0, 0}, d.Duty())
}

func TestDimmableInvalidConfig(t *testing.T) {
	deps := Dependencies{Log: zerolog.Nop(), Bridge: bridge.NewVirtualBridge()}

	_, err := NewDimmableColorDriver(DimmableConfig{Pins: testPins, Frequency: 1000}, deps)
	assert.True(t, model.IsValidation(err))

	dup := model.RGBPins{Red: "GPIO17", Green: "GPIO17", Blue: "GPIO22"}
	_, err = NewDimmableColorDriver(DimmableConfig{Pins: dup, Frequency: 1000, MaxDuty: 1023}, deps)
	assert.True(t, model.IsValidation(err))

	_, err = NewDimmableColorDriver(DimmableConfig{Pins: testPins, Frequency: 1000, MaxDuty: 1023}, Dependencies{Log: zerolog.Nop()})
	assert.True(t, model.IsValidation(err))
}

func TestDimmableClaimFailureReleases(t *testing.T) {
	br := bridge.NewVirtualBridge()
	_, err := br.Output("GPIO22", false)
	require.NoError(t, err)

	_, err = NewDimmableColorDriver(DimmableConfig{Pins: testPins, Frequency: 1000, MaxDuty: 1023},
		Dependencies{Log: zerolog.Nop(), Bridge: br})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))

	red, found := br.PWMPin("GPIO17")
	require.True(t, found)
	assert.Equal(t, 1, red.Releases())
}
