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

package bridge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/LedWorker/model"
)

func TestVirtualBridgeClaim(t *testing.T) {
	b := NewVirtualBridge()
	_, err := b.Output("GPIO1", false)
	require.NoError(t, err)
	_, err = b.PWM("GPIO1", 1000, 1023, false)
	assert.True(t, model.IsValidation(err))
	_, err = b.PWM("GPIO2", 0, 1023, false)
	assert.True(t, model.IsValidation(err))
	_, err = b.PWM("GPIO2", 1000, 0, false)
	assert.True(t, model.IsValidation(err))
	_, err = b.Output("", false)
	assert.True(t, model.IsValidation(err))

	require.NoError(t, b.Close())
	_, err = b.Output("GPIO3", false)
	assert.True(t, model.IsValidation(err))
}

func TestVirtualPWMPin(t *testing.T) {
	b := NewVirtualBridge()
	p, err := b.PWM("GPIO12", 1000, 1023, false)
	require.NoError(t, err)
	vp, found := b.PWMPin("GPIO12")
	require.True(t, found)
	assert.Equal(t, 1000, vp.Frequency())

	require.NoError(t, p.SetDuty(512))
	assert.Error(t, p.SetDuty(1024))
	assert.Error(t, p.SetDuty(-1))
	duty, err := p.Duty()
	require.NoError(t, err)
	assert.Equal(t, 512, duty)
	assert.Equal(t, []int{512}, vp.History())

	vp.SetError(fmt.Errorf("bus error"))
	assert.Error(t, p.SetDuty(10))
	vp.SetError(nil)

	require.NoError(t, p.Release())
	duty, _ = p.Duty()
	assert.Equal(t, 0, duty)
	assert.Error(t, p.SetDuty(10))
	assert.Error(t, p.Release())
	assert.Equal(t, 2, vp.Releases())
}

func TestVirtualOutputPin(t *testing.T) {
	b := NewVirtualBridge()
	p, err := b.Output("GPIO5", true)
	require.NoError(t, err)
	vp, found := b.OutputPin("GPIO5")
	require.True(t, found)

	require.NoError(t, p.Write(true))
	assert.True(t, vp.Value())
	assert.False(t, vp.Level())
	assert.Equal(t, 1, vp.Writes())
}

func TestVirtualOutputPinRelease(t *testing.T) {
	b := NewVirtualBridge()
	p, err := b.Output("GPIO6", false)
	require.NoError(t, err)
	vp, _ := b.OutputPin("GPIO6")

	require.NoError(t, p.Write(true))
	require.NoError(t, p.Release())
	assert.False(t, vp.Value())
	assert.Equal(t, 1, vp.Releases())
	assert.Error(t, p.Write(true))
	assert.False(t, vp.Value())
	assert.Error(t, p.Release())
}
