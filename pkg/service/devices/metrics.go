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
	"github.com/binkynet/LedWorker/pkg/metrics"
)

const (
	subSystem = "devices"
)

var (
	// Committed duty cycle per channel
	dutyGauge = metrics.MustRegisterGaugeVec(subSystem,
		"duty",
		"Committed duty cycle per channel",
		"channel")
	// Committed binary state per channel
	binaryGauge = metrics.MustRegisterGaugeVec(subSystem,
		"binary_state",
		"Committed state per channel (0=OFF, 1=ON)",
		"channel")
	// Total number of committed changes
	commitsTotal = metrics.MustRegisterCounterVec(subSystem,
		"commits_total",
		"Total number of committed changes",
		"mode")
	// Total number of failed commits
	commitErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"commit_errors_total",
		"Total number of failed commits",
		"mode")
)
