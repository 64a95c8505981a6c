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

package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigurationIsValid(t *testing.T) {
	require.NoError(t, DefaultConfiguration().Validate())
}

func TestConfigurationValidate(t *testing.T) {
	tests := []struct {
		Name   string
		Modify func(c *LEDConfiguration)
	}{
		{"mode", func(c *LEDConfiguration) { c.Mode = "rainbow" }},
		{"bridge", func(c *LEDConfiguration) { c.Bridge = "arduino" }},
		{"empty pin", func(c *LEDConfiguration) { c.GreenPin = " " }},
		{"duplicate pin", func(c *LEDConfiguration) { c.BluePin = c.RedPin }},
		{"frequency", func(c *LEDConfiguration) { c.Frequency = 0 }},
		{"max duty", func(c *LEDConfiguration) { c.MaxDuty = -1 }},
		{"port", func(c *LEDConfiguration) { c.Port = 70000 }},
		{"pwm on gpio", func(c *LEDConfiguration) { c.Bridge = BridgeTypeGPIO }},
		{"pca9685 pin", func(c *LEDConfiguration) { c.Bridge = BridgeTypePCA9685 }},
		{"i2c address", func(c *LEDConfiguration) { usePCA9685(c); c.I2CAddress = 0x80 }},
		{"pca9685 frequency", func(c *LEDConfiguration) { usePCA9685(c); c.Frequency = 5000 }},
		{"mqtt topic", func(c *LEDConfiguration) { c.MQTTBroker = "localhost:1883"; c.MQTTTopic = "" }},
		{"mqtt topic slash", func(c *LEDConfiguration) { c.MQTTBroker = "localhost:1883"; c.MQTTTopic = "/" }},
		{"initial effect", func(c *LEDConfiguration) { c.InitialEffect = "sparkle" }},
		{"initial effect mode", func(c *LEDConfiguration) { c.Mode = DriverModeBinary; c.InitialEffect = EffectTypeRainbow }},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			c := DefaultConfiguration()
			test.Modify(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestBinaryModeOnGPIOBridge(t *testing.T) {
	c := DefaultConfiguration()
	c.Mode = DriverModeBinary
	c.Bridge = BridgeTypeGPIO
	c.Frequency = 0
	assert.NoError(t, c.Validate())
}

func usePCA9685(c *LEDConfiguration) {
	c.Bridge = BridgeTypePCA9685
	c.RedPin, c.GreenPin, c.BluePin = "0", "1", "2"
}

func TestPCA9685Bridge(t *testing.T) {
	c := DefaultConfiguration()
	usePCA9685(&c)
	c.MaxDuty = 4095
	assert.NoError(t, c.Validate())
	assert.True(t, c.Bridge.SupportsPWM())
}

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledworker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: binary
red_pin: "6"
green_pin: "7"
blue_pin: "5"
max_duty: 255
`), 0644))
	t.Setenv("LEDWORKER_BLUE_PIN", "GPIO9")
	t.Setenv("LEDWORKER_PORT", "8080")

	c, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, DriverModeBinary, c.Mode)
	assert.Equal(t, RGBPins{Red: "6", Green: "7", Blue: "GPIO9"}, c.Pins())
	assert.Equal(t, 255, c.MaxDuty)
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, DefaultFrequency, c.Frequency)
	assert.NoError(t, c.Validate())
}

func TestLoadConfigurationInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: [pwm"), 0644))
	_, err := LoadConfiguration(path)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestPinNumber(t *testing.T) {
	for _, p := range []Pin{"17", "GPIO17", "gpio17", " 17 "} {
		nr, err := p.Number()
		require.NoError(t, err)
		assert.Equal(t, 17, nr)
	}
	_, err := Pin("PWM0").Number()
	assert.True(t, IsValidation(err))
}
