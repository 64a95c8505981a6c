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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binkynet/LedWorker/model"
)

func TestHSVToRGBPrimaries(t *testing.T) {
	assert.Equal(t, model.RGB{Red: 255}, HSVToRGB(0, 100, 100))
	assert.Equal(t, model.RGB{Green: 255}, HSVToRGB(120, 100, 100))
	assert.Equal(t, model.RGB{Blue: 255}, HSVToRGB(240, 100, 100))
}

func TestHSVToRGBSecondaries(t *testing.T) {
	assert.Equal(t, model.RGB{Red: 255, Green: 255}, HSVToRGB(60, 100, 100))
	assert.Equal(t, model.RGB{Green: 255, Blue: 255}, HSVToRGB(180, 100, 100))
	assert.Equal(t, model.RGB{Red: 255, Blue: 255}, HSVToRGB(300, 100, 100))
}

func TestHSVToRGBAchromatic(t *testing.T) {
	for _, h := range []float64{0, 45, 200, 359} {
		assert.Equal(t, model.RGB{Red: 255, Green: 255, Blue: 255}, HSVToRGB(h, 0, 100))
		assert.Equal(t, model.RGB{}, HSVToRGB(h, 0, 0))
		assert.Equal(t, model.RGB{Red: 51, Green: 51, Blue: 51}, HSVToRGB(h, 0, 20))
		assert.Equal(t, model.RGB{Red: 128, Green: 128, Blue: 128}, HSVToRGB(h, 0, 50))
	}
}

func TestHSVToRGBHueWraps(t *testing.T) {
	assert.Equal(t, HSVToRGB(0, 100, 100), HSVToRGB(360, 100, 100))
	assert.Equal(t, HSVToRGB(120, 100, 100), HSVToRGB(480, 100, 100))
	assert.Equal(t, HSVToRGB(300, 100, 100), HSVToRGB(-60, 100, 100))
}

func TestHSVToRGBTruncates(t *testing.T) {
	// hue 30: sector 0, f=0.5, t=0.5 => 127.5 truncated
	assert.Equal(t, model.RGB{Red: 255, Green: 127}, HSVToRGB(30, 100, 100))
}
