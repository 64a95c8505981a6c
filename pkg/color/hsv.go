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

package color

import (
	"math"

	"github.com/binkynet/LedWorker/model"
)

// HSVToRGB converts a color in HSV space into RGB.
// Hue is in degrees and wraps around at 360.
// Saturation and value are percentages (0-100) and are clamped.
// Each resulting channel is scaled to 0-255 and truncated,
// except for achromatic (zero saturation) colors which are rounded.
func HSVToRGB(hue, saturation, value float64) model.RGB {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	if math.IsNaN(h) {
		h = 0
	}
	h /= 360
	s := model.ClampPercent(saturation) / 100
	v := model.ClampPercent(value) / 100

	if s == 0 {
		gray := uint8(math.Round(v * model.MaxByte))
		return model.RGB{Red: gray, Green: gray, Blue: gray}
	}

	var r, g, b float64
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return model.RGB{
		Red:   toByte(r),
		Green: toByte(g),
		Blue:  toByte(b),
	}
}

// toByte scales a [0,1] component to 0-255, truncating the fraction.
func toByte(x float64) uint8 {
	return uint8(math.Max(0, math.Min(model.MaxByte, x*model.MaxByte)))
}
