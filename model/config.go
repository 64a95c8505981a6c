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
	"strings"

	"github.com/caarlos0/env"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrequency = 1000
	DefaultHTTPPort  = 7130
	DefaultMQTTTopic = "ledworker"
	// MaxFrequency is the highest PWM frequency accepted by the configuration.
	MaxFrequency = 40000000
	// DefaultI2CAddress is the power-on address of a PCA9685.
	DefaultI2CAddress = 0x40
	// PCA9685 output frequency range, limited by its 8-bit prescaler.
	PCA9685MinFrequency = 24
	PCA9685MaxFrequency = 1526
	PCA9685Channels     = 16
)

// LEDConfiguration holds the configuration of a single LED worker.
// Values are taken from defaults, an optional YAML file and the
// environment, in that order.
type LEDConfiguration struct {
	// Type of driver (binary|pwm)
	Mode DriverMode `yaml:"mode" env:"LEDWORKER_MODE"`
	// Type of bridge (auto|periph|gpio|pca9685|virtual)
	Bridge BridgeType `yaml:"bridge" env:"LEDWORKER_BRIDGE"`
	// Pin of the red channel
	RedPin Pin `yaml:"red_pin" env:"LEDWORKER_RED_PIN"`
	// Pin of the green channel
	GreenPin Pin `yaml:"green_pin" env:"LEDWORKER_GREEN_PIN"`
	// Pin of the blue channel
	BluePin Pin `yaml:"blue_pin" env:"LEDWORKER_BLUE_PIN"`
	// Name of the I2C bus used by the pca9685 bridge. Empty selects the first bus.
	I2CBus string `yaml:"i2c_bus" env:"LEDWORKER_I2C_BUS"`
	// I2C address of the PCA9685
	I2CAddress int `yaml:"i2c_address" env:"LEDWORKER_I2C_ADDRESS"`
	// Set for common-anode wiring, where a low output turns a channel on.
	ActiveLow bool `yaml:"active_low" env:"LEDWORKER_ACTIVE_LOW"`
	// PWM frequency in Hz
	Frequency int `yaml:"frequency" env:"LEDWORKER_FREQUENCY"`
	// Highest duty cycle value (duty resolution)
	MaxDuty int `yaml:"max_duty" env:"LEDWORKER_MAX_DUTY"`
	// Host interface the HTTP server listens on
	Host string `yaml:"host" env:"LEDWORKER_HOST"`
	// Port the HTTP server listens on. 0 disables the server.
	Port int `yaml:"port" env:"LEDWORKER_PORT"`
	// Address (host:port) of the MQTT broker. Empty disables MQTT.
	MQTTBroker string `yaml:"mqtt_broker" env:"LEDWORKER_MQTT_BROKER"`
	// Prefix of all MQTT topics
	MQTTTopic string `yaml:"mqtt_topic" env:"LEDWORKER_MQTT_TOPIC"`
	// MQTT client ID. Defaults to the topic prefix.
	MQTTClientID string `yaml:"mqtt_client_id" env:"LEDWORKER_MQTT_CLIENT_ID"`
	MQTTUserName string `yaml:"mqtt_username" env:"LEDWORKER_MQTT_USERNAME"`
	MQTTPassword string `yaml:"mqtt_password" env:"LEDWORKER_MQTT_PASSWORD"`
	// Effect started when the worker starts (optional)
	InitialEffect EffectType `yaml:"initial_effect" env:"LEDWORKER_EFFECT"`
}

// DefaultConfiguration returns the configuration used when nothing is specified.
func DefaultConfiguration() LEDConfiguration {
	return LEDConfiguration{
		Mode:       DriverModePWM,
		Bridge:     BridgeTypeAuto,
		RedPin:     "GPIO17",
		GreenPin:   "GPIO27",
		BluePin:    "GPIO22",
		Frequency:  DefaultFrequency,
		MaxDuty:    DefaultMaxDuty,
		I2CAddress: DefaultI2CAddress,
		Host:       "0.0.0.0",
		Port:       DefaultHTTPPort,
		MQTTTopic:  DefaultMQTTTopic,
	}
}

// LoadConfiguration builds a configuration from the defaults,
// the YAML file at given path (if not empty) and the environment.
// The result is not validated.
func LoadConfiguration(path string) (LEDConfiguration, error) {
	c := DefaultConfiguration()
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return c, errors.Wrapf(err, "Failed to read configuration file '%s'", path)
		}
		if err := yaml.Unmarshal(content, &c); err != nil {
			return c, errors.Wrapf(ValidationError, "Failed to parse configuration file '%s': %s", path, err.Error())
		}
	}
	if err := env.Parse(&c); err != nil {
		return c, errors.Wrapf(ValidationError, "Failed to parse environment: %s", err.Error())
	}
	return c, nil
}

// Pins returns the pins of all channels.
func (c LEDConfiguration) Pins() RGBPins {
	return RGBPins{Red: c.RedPin, Green: c.GreenPin, Blue: c.BluePin}
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (c LEDConfiguration) Validate() error {
	if err := c.Mode.Validate(); err != nil {
		return maskAny(err)
	}
	if err := c.Bridge.Validate(); err != nil {
		return maskAny(err)
	}
	if err := c.Pins().Validate(); err != nil {
		return maskAny(err)
	}
	if c.Mode == DriverModePWM {
		if !c.Bridge.SupportsPWM() {
			return errors.Wrapf(ValidationError, "bridge '%s' does not support mode '%s'", c.Bridge, c.Mode)
		}
		if c.Frequency <= 0 || c.Frequency > MaxFrequency {
			return errors.Wrapf(ValidationError, "Frequency must be in 1..%d range, got %d", MaxFrequency, c.Frequency)
		}
		if c.MaxDuty <= 0 {
			return errors.Wrapf(ValidationError, "MaxDuty must be > 0, got %d", c.MaxDuty)
		}
	}
	if c.Bridge == BridgeTypePCA9685 {
		for _, pin := range c.Pins().All() {
			if nr, err := pin.Number(); err != nil || nr >= PCA9685Channels {
				return errors.Wrapf(ValidationError, "pin '%s' is not a PCA9685 channel (0..%d)", pin, PCA9685Channels-1)
			}
		}
		if c.I2CAddress < 0x03 || c.I2CAddress > 0x77 {
			return errors.Wrapf(ValidationError, "I2CAddress must be in 0x03..0x77 range, got 0x%x", c.I2CAddress)
		}
		if c.Mode == DriverModePWM && (c.Frequency < PCA9685MinFrequency || c.Frequency > PCA9685MaxFrequency) {
			return errors.Wrapf(ValidationError, "Frequency must be in %d..%d range for a PCA9685, got %d",
				PCA9685MinFrequency, PCA9685MaxFrequency, c.Frequency)
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.Wrapf(ValidationError, "Port must be in 0..65535 range, got %d", c.Port)
	}
	if c.MQTTBroker != "" && strings.Trim(c.MQTTTopic, "/ ") == "" {
		return errors.Wrap(ValidationError, "MQTTTopic is empty")
	}
	if c.InitialEffect != "" {
		if err := c.InitialEffect.Validate(); err != nil {
			return errors.Wrapf(ValidationError, "Error in InitialEffect: %s", err.Error())
		}
		if !c.InitialEffect.SupportsMode(c.Mode) {
			return errors.Wrapf(ValidationError, "InitialEffect '%s' is not supported in mode '%s'", c.InitialEffect, c.Mode)
		}
	}
	return nil
}
