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

package effects

import (
	"github.com/binkynet/LedWorker/pkg/metrics"
)

const (
	subSystem = "effects"
)

var (
	// Total number of started effects
	startedTotal = metrics.MustRegisterCounterVec(subSystem,
		"started_total",
		"Total number of started effects",
		"type")
	// Total number of effects that ran to completion
	completedTotal = metrics.MustRegisterCounterVec(subSystem,
		"completed_total",
		"Total number of effects that ran to completion",
		"type")
	// Total number of effects that were canceled before completion
	interruptedTotal = metrics.MustRegisterCounterVec(subSystem,
		"interrupted_total",
		"Total number of effects that were canceled before completion",
		"type")
	// Total number of failed effects
	failedTotal = metrics.MustRegisterCounterVec(subSystem,
		"failed_total",
		"Total number of failed effects",
		"type")
	// Total number of steps
	stepsTotal = metrics.MustRegisterCounterVec(subSystem,
		"steps_total",
		"Total number of steps executed by effects",
		"type")
)
