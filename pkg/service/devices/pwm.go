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

	"github.com/binkynet/LedWorker/model"
)

// BinaryColorDriver drives each channel fully on or off.
type BinaryColorDriver interface {
	Device
	// SetColor drives each channel to the given state.
	SetColor(ctx context.Context, c model.BinaryColor) error
	// RedOn turns on red only.
	RedOn(ctx context.Context) error
	// GreenOn turns on green only.
	GreenOn(ctx context.Context) error
	// BlueOn turns on blue only.
	BlueOn(ctx context.Context) error
	// WhiteOn turns on all channels.
	WhiteOn(ctx context.Context) error
	// Color returns the last committed channel states.
	Color() model.BinaryColor
}

// DimmableColorDriver dims each channel with a duty cycle output.
type DimmableColorDriver interface {
	Device
	// SetBrightness clamps each channel to [0..100], converts it to a duty
	// cycle and commits all three channels.
	SetBrightness(ctx context.Context, b model.Brightness) error
	// SetColorRGB converts a byte color to percentages and sets the brightness.
	SetColorRGB(ctx context.Context, c model.RGB) error
	// RedOn sets red to the given percentage and others to 0.
	RedOn(ctx context.Context, brightness float64) error
	// GreenOn sets green to the given percentage and others to 0.
	GreenOn(ctx context.Context, brightness float64) error
	// BlueOn sets blue to the given percentage and others to 0.
	BlueOn(ctx context.Context, brightness float64) error
	// WhiteOn sets all channels to the given percentage.
	WhiteOn(ctx context.Context, brightness float64) error
	// Brightness returns the last committed brightness,
	// derived from the committed duty cycles.
	Brightness() model.Brightness
	// Duty returns the last committed duty cycles.
	Duty() [3]int
	// DutyCycles reads back the duty cycles from the outputs.
	DutyCycles(ctx context.Context) ([3]int, error)
	// MaxDuty returns the duty cycle resolution.
	MaxDuty() int
}
