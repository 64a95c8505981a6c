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

//go:build linux

package environment

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/binkynet/LedWorker/model"
)

func TestBridgeTypeForMachine(t *testing.T) {
	log := zerolog.Nop()
	assert.Equal(t, model.BridgeTypePeriph, bridgeTypeForMachine(log, "armv7l", "6.1.21-v7+"))
	assert.Equal(t, model.BridgeTypePeriph, bridgeTypeForMachine(log, "aarch64", "5.15.0-sunxi64"))
	assert.Equal(t, model.BridgeTypeVirtual, bridgeTypeForMachine(log, "x86_64", "6.5.0"))
	assert.NotEmpty(t, AutoDetectBridgeType(log))
}
