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
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/binkynet/LedWorker/model"
)

// AutoDetectBridgeType detects the default bridge type based on the environment.
// Single board computers (arm) use periph, everything else is virtual.
func AutoDetectBridgeType(log zerolog.Logger) model.BridgeType {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		log.Warn().Err(err).Msg("Uname failed, using virtual bridge")
		return model.BridgeTypeVirtual
	}
	return bridgeTypeForMachine(log, unix.ByteSliceToString(name.Machine[:]), unix.ByteSliceToString(name.Release[:]))
}

func bridgeTypeForMachine(log zerolog.Logger, machine, release string) model.BridgeType {
	machine = strings.ToLower(strings.TrimSpace(machine))
	result := model.BridgeTypeVirtual
	if strings.HasPrefix(machine, "arm") || strings.HasPrefix(machine, "aarch64") {
		result = model.BridgeTypePeriph
	}
	log.Debug().
		Str("machine", machine).
		Str("release", strings.TrimSpace(release)).
		Str("bridge", string(result)).
		Msg("Detected bridge type")
	return result
}
