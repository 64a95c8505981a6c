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

package worker

import (
	"github.com/pkg/errors"

	"github.com/binkynet/LedWorker/pkg/metrics"
)

const (
	subSystem = "worker"
)

var (
	maskAny = errors.WithStack

	// Total number of accepted effect requests
	requestsTotal = metrics.MustRegisterCounterVec(subSystem,
		"requests_total",
		"Total number of accepted effect requests",
		"type")
	// Total number of effects preempted by a newer request
	preemptionsTotal = metrics.MustRegisterCounter(subSystem,
		"preemptions_total",
		"Total number of effects preempted by a newer request")
	// Total number of failed effects
	effectErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"effect_errors_total",
		"Total number of failed effects",
		"type")
	// Set while a timed effect is running
	runningGauge = metrics.MustRegisterGauge(subSystem,
		"running",
		"Set while a timed effect is running (0=idle, 1=running)")
)
