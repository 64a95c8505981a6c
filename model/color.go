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
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultMaxDuty is the duty cycle resolution of a common 10-bit PWM peripheral.
	DefaultMaxDuty = 1023
	// MaxPercent is the brightness of a channel that is fully on.
	MaxPercent = 100.0
	// MaxByte is the highest value of a channel in byte representation.
	MaxByte = 255
)

// ChannelNames holds the names of the channels in red, green, blue order.
var ChannelNames = [3]string{"red", "green", "blue"}

// ClampPercent limits the given percentage to [0, 100].
// NaN results in 0.
func ClampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > MaxPercent:
		return MaxPercent
	default:
		return p
	}
}

// ByteToPercent converts a 0-255 channel value to a 0-100 percentage.
func ByteToPercent(v uint8) float64 {
	return float64(v) / MaxByte * MaxPercent
}

// PercentToDuty converts a percentage to a duty cycle in [0, maxDuty].
// The percentage is clamped first, so no out-of-range duty is ever returned.
func PercentToDuty(p float64, maxDuty int) int {
	if maxDuty <= 0 {
		return 0
	}
	return int(math.Round(float64(maxDuty) * ClampPercent(p) / MaxPercent))
}

// DutyToPercent converts a duty cycle in [0, maxDuty] back to a percentage.
func DutyToPercent(duty, maxDuty int) float64 {
	if maxDuty <= 0 {
		return 0
	}
	return ClampPercent(float64(duty) / float64(maxDuty) * MaxPercent)
}

// Brightness holds the brightness percentage (0-100) of each channel.
type Brightness struct {
	Red   float64 `json:"red" yaml:"red"`
	Green float64 `json:"green" yaml:"green"`
	Blue  float64 `json:"blue" yaml:"blue"`
}

// Off is the brightness of a dark LED.
var Off = Brightness{}

// NewBrightness creates a brightness from the given percentages.
func NewBrightness(red, green, blue float64) Brightness {
	return Brightness{Red: red, Green: green, Blue: blue}
}

// Clamped returns a copy of the brightness with all channels limited to [0, 100].
func (b Brightness) Clamped() Brightness {
	return Brightness{
		Red:   ClampPercent(b.Red),
		Green: ClampPercent(b.Green),
		Blue:  ClampPercent(b.Blue),
	}
}

// Scale multiplies all channels with the given factor.
func (b Brightness) Scale(factor float64) Brightness {
	return Brightness{
		Red:   b.Red * factor,
		Green: b.Green * factor,
		Blue:  b.Blue * factor,
	}
}

// Channels returns the percentages in red, green, blue order.
func (b Brightness) Channels() [3]float64 {
	return [3]float64{b.Red, b.Green, b.Blue}
}

// Duty converts all channels to duty cycles in [0, maxDuty].
func (b Brightness) Duty(maxDuty int) [3]int {
	return [3]int{
		PercentToDuty(b.Red, maxDuty),
		PercentToDuty(b.Green, maxDuty),
		PercentToDuty(b.Blue, maxDuty),
	}
}

// BrightnessFromDuty converts duty cycles back into a brightness.
func BrightnessFromDuty(duty [3]int, maxDuty int) Brightness {
	return Brightness{
		Red:   DutyToPercent(duty[0], maxDuty),
		Green: DutyToPercent(duty[1], maxDuty),
		Blue:  DutyToPercent(duty[2], maxDuty),
	}
}

// IsOff returns true when all channels are at 0.
func (b Brightness) IsOff() bool {
	return b.Red <= 0 && b.Green <= 0 && b.Blue <= 0
}

func (b Brightness) String() string {
	return fmt.Sprintf("R%.1f%% G%.1f%% B%.1f%%", b.Red, b.Green, b.Blue)
}

// RGB holds a 0-255 value for each channel.
type RGB struct {
	Red   uint8 `json:"red" yaml:"red"`
	Green uint8 `json:"green" yaml:"green"`
	Blue  uint8 `json:"blue" yaml:"blue"`
}

// Brightness converts the byte values into percentages.
func (c RGB) Brightness() Brightness {
	return Brightness{
		Red:   ByteToPercent(c.Red),
		Green: ByteToPercent(c.Green),
		Blue:  ByteToPercent(c.Blue),
	}
}

func (c RGB) String() string {
	return fmt.Sprintf("RGB(%d, %d, %d)", c.Red, c.Green, c.Blue)
}

// ColorValue is the wire representation of a byte color.
// Values are not limited until converted with RGB.
type ColorValue struct {
	Red   int `json:"red" yaml:"red"`
	Green int `json:"green" yaml:"green"`
	Blue  int `json:"blue" yaml:"blue"`
}

// RGB converts the value into a byte color, clamping each channel to [0, 255].
func (v ColorValue) RGB() RGB {
	return RGB{
		Red:   clampByte(v.Red),
		Green: clampByte(v.Green),
		Blue:  clampByte(v.Blue),
	}
}

func clampByte(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > MaxByte:
		return MaxByte
	default:
		return uint8(v)
	}
}

// BinaryColor holds the on/off state of each channel.
type BinaryColor struct {
	Red   bool `json:"red" yaml:"red"`
	Green bool `json:"green" yaml:"green"`
	Blue  bool `json:"blue" yaml:"blue"`
}

var (
	BinaryOff     = BinaryColor{}
	BinaryRed     = BinaryColor{Red: true}
	BinaryGreen   = BinaryColor{Green: true}
	BinaryBlue    = BinaryColor{Blue: true}
	BinaryYellow  = BinaryColor{Red: true, Green: true}
	BinaryMagenta = BinaryColor{Red: true, Blue: true}
	BinaryCyan    = BinaryColor{Green: true, Blue: true}
	BinaryWhite   = BinaryColor{Red: true, Green: true, Blue: true}
)

// BinaryColors lists all 8 colors a binary driver can compose,
// ending with off.
var BinaryColors = []BinaryColor{
	BinaryRed, BinaryGreen, BinaryBlue,
	BinaryYellow, BinaryMagenta, BinaryCyan,
	BinaryWhite, BinaryOff,
}

// Channels returns the states in red, green, blue order.
func (c BinaryColor) Channels() [3]bool {
	return [3]bool{c.Red, c.Green, c.Blue}
}

// String returns the names of the channels that are on, joined with '+'.
func (c BinaryColor) String() string {
	var names []string
	for i, on := range c.Channels() {
		if on {
			names = append(names, ChannelNames[i])
		}
	}
	if len(names) == 0 {
		return "off"
	}
	return strings.Join(names, "+")
}

// Threshold converts a byte color into a binary color.
// A channel is on when its value is at least half of the range.
func (c RGB) Threshold() BinaryColor {
	const half = (MaxByte + 1) / 2
	return BinaryColor{
		Red:   c.Red >= half,
		Green: c.Green >= half,
		Blue:  c.Blue >= half,
	}
}
