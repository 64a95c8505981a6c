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

import "github.com/pkg/errors"

// BridgeType identifies the hardware used to drive the LED pins.
type BridgeType string

const (
	// BridgeTypeAuto selects a bridge based on the environment.
	BridgeTypeAuto BridgeType = "auto"
	// BridgeTypePeriph uses the periph.io host drivers (digital + PWM).
	BridgeTypePeriph BridgeType = "periph"
	// BridgeTypeGPIO uses sysfs GPIO (digital only).
	BridgeTypeGPIO BridgeType = "gpio"
	// BridgeTypePCA9685 uses the 16 channels of a PCA9685 PWM chip on the I2C bus.
	// Pins are channel numbers (0...15).
	BridgeTypePCA9685 BridgeType = "pca9685"
	// BridgeTypeVirtual keeps all pin state in memory.
	BridgeTypeVirtual BridgeType = "virtual"
)

// Validate the given type, returning nil on ok,
// or an error upon validation issues.
func (t BridgeType) Validate() error {
	switch t {
	case BridgeTypeAuto, BridgeTypePeriph, BridgeTypeGPIO, BridgeTypePCA9685, BridgeTypeVirtual:
		return nil
	default:
		return errors.Wrapf(ValidationError, "invalid bridge type '%s'", string(t))
	}
}

// SupportsPWM returns true if the bridge can produce variable duty cycle outputs.
func (t BridgeType) SupportsPWM() bool {
	return t != BridgeTypeGPIO
}

// DriverMode identifies the type of LED driver.
type DriverMode string

const (
	// DriverModeBinary drives each channel fully on or off.
	DriverModeBinary DriverMode = "binary"
	// DriverModePWM dims each channel with a duty cycle.
	DriverModePWM DriverMode = "pwm"
)

// Validate the given mode, returning nil on ok,
// or an error upon validation issues.
func (m DriverMode) Validate() error {
	switch m {
	case DriverModeBinary, DriverModePWM:
		return nil
	default:
		return errors.Wrapf(ValidationError, "invalid driver mode '%s'", string(m))
	}
}
