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

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/LedWorker/model"
	"github.com/binkynet/LedWorker/pkg/service/bridge"
)

func newTestBinary(t *testing.T, activeLow bool) (BinaryColorDriver, [3]*bridge.VirtualOutputPin) {
	br := bridge.NewVirtualBridge()
	d, err := NewBinaryColorDriver(BinaryConfig{Pins: testPins, ActiveLow: activeLow},
		Dependencies{Log: zerolog.Nop(), Bridge: br})
	require.NoError(t, err)
	var pins [3]*bridge.VirtualOutputPin
	for i, pin := range testPins.All() {
		p, found := br.OutputPin(pin)
		require.True(t, found)
		pins[i] = p
	}
	return d, pins
}

func values(pins [3]*bridge.VirtualOutputPin) [3]bool {
	return [3]bool{pins[0].Value(), pins[1].Value(), pins[2].Value()}
}

func TestBinarySingleChannel(t *testing.T) {
	ctx := context.Background()
	d, pins := newTestBinary(t, false)
	require.NoError(t, d.Configure(ctx))
	assert.Equal(t, [3]bool{false, false, false}, values(pins))

	require.NoError(t, d.RedOn(ctx))
	assert.Equal(t, [3]bool{true, false, false}, values(pins))
	require.NoError(t, d.GreenOn(ctx))
	assert.Equal(t, [3]bool{false, true, false}, values(pins))
	require.NoError(t, d.BlueOn(ctx))
	assert.Equal(t, [3]bool{false, false, true}, values(pins))
	require.NoError(t, d.WhiteOn(ctx))
	assert.Equal(t, [3]bool{true, true, true}, values(pins))
	assert.Equal(t, model.BinaryWhite, d.Color())
	require.NoError(t, d.Off(ctx))
	assert.Equal(t, [3]bool{false, false, false}, values(pins))
}

func TestBinaryComposedColors(t *testing.T) {
	ctx := context.Background()
	d, pins := newTestBinary(t, false)

	require.NoError(t, d.SetColor(ctx, model.BinaryYellow))
	assert.Equal(t, [3]bool{true, true, false}, values(pins))
	assert.Equal(t, "red+green", d.Color().String())

	s := d.State()
	assert.Equal(t, model.DriverModeBinary, s.Mode)
	assert.Equal(t, model.BinaryYellow, s.Binary)
	assert.Equal(t, 100.0, s.Brightness.Red)
	assert.Equal(t, 0.0, s.Brightness.Blue)
}

func TestBinaryActiveLow(t *testing.T) {
	ctx := context.Background()
	d, pins := newTestBinary(t, true)

	require.NoError(t, d.RedOn(ctx))
	assert.False(t, pins[0].Level())
	assert.True(t, pins[1].Level())
}

func TestBinaryCloseOnce(t *testing.T) {
	ctx := context.Background()
	d, pins := newTestBinary(t, false)
	require.NoError(t, d.WhiteOn(ctx))

	require.NoError(t, d.Close(ctx))
	assert.Equal(t, [3]bool{false, false, false}, values(pins))
	assert.True(t, model.IsAlreadyReleased(d.Close(ctx)))
	assert.True(t, model.IsAlreadyReleased(d.RedOn(ctx)))
	assert.Equal(t, [3]bool{false, false, false}, values(pins))
}

func TestBinaryCloseReleasesOutputs(t *testing.T) {
	ctx := context.Background()
	d, pins := newTestBinary(t, false)
	require.NoError(t, d.WhiteOn(ctx))

	require.NoError(t, d.Close(ctx))
	for _, p := range pins {
		assert.Equal(t, 1, p.Releases())
		assert.False(t, p.Value())
	}
	assert.True(t, d.State().Released)
}

func TestBinaryClaimFailureReleases(t *testing.T) {
	br := bridge.NewVirtualBridge()
	_, err := br.Output(testPins.Blue, false)
	require.NoError(t, err)

	_, err = NewBinaryColorDriver(BinaryConfig{Pins: testPins},
		Dependencies{Log: zerolog.Nop(), Bridge: br})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))

	for _, pin := range []model.Pin{testPins.Red, testPins.Green} {
		p, found := br.OutputPin(pin)
		require.True(t, found)
		assert.Equal(t, 1, p.Releases())
		assert.False(t, p.Value())
	}
}
