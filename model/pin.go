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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pin identifies a connection pin of the bridge.
// Depending on the bridge this is a name ("GPIO17", "PWM0")
// or a plain number ("17").
type Pin string

// Validate the given pin, returning nil on ok,
// or an error upon validation issues.
func (p Pin) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return errors.Wrap(ValidationError, "pin is empty")
	}
	return nil
}

// Number returns the numeric part of the pin.
// "GPIO17", "gpio17" and "17" all result in 17.
func (p Pin) Number() (int, error) {
	s := strings.ToUpper(strings.TrimSpace(string(p)))
	s = strings.TrimPrefix(s, "GPIO")
	nr, err := strconv.Atoi(s)
	if err != nil || nr < 0 {
		return 0, errors.Wrapf(ValidationError, "pin '%s' is not a pin number", string(p))
	}
	return nr, nil
}

// RGBPins holds the pins of the red, green & blue channel.
type RGBPins struct {
	Red   Pin `yaml:"red" json:"red"`
	Green Pin `yaml:"green" json:"green"`
	Blue  Pin `yaml:"blue" json:"blue"`
}

// All returns the pins in red, green, blue order.
func (p RGBPins) All() [3]Pin {
	return [3]Pin{p.Red, p.Green, p.Blue}
}

// Validate the given pins, returning nil on ok,
// or an error upon validation issues.
func (p RGBPins) Validate() error {
	seen := make(map[Pin]string)
	for i, pin := range p.All() {
		name := ChannelNames[i]
		if err := pin.Validate(); err != nil {
			return errors.Wrapf(ValidationError, "Error in %s pin: %s", name, err.Error())
		}
		if other, found := seen[pin]; found {
			return errors.Wrapf(ValidationError, "%s pin '%s' is already used by %s", name, pin, other)
		}
		seen[pin] = name
	}
	return nil
}
