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

// State holds the observable state of the LED worker.
type State struct {
	// Mode of the driver
	Mode DriverMode `json:"mode"`
	// Last committed brightness (pwm mode)
	Brightness Brightness `json:"brightness"`
	// Last committed duty cycles in red, green, blue order (pwm mode)
	Duty [3]int `json:"duty"`
	// Duty cycle resolution (pwm mode)
	MaxDuty int `json:"maxDuty,omitempty"`
	// Last committed channel states (binary mode)
	Binary BinaryColor `json:"binary"`
	// Type of the last started effect
	Effect EffectType `json:"effect,omitempty"`
	// Set while a timed effect is running
	Running bool `json:"running"`
	// Set once the driver outputs have been released
	Released bool `json:"released,omitempty"`
}
