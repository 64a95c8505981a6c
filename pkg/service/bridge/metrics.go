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

package bridge

import (
	"github.com/binkynet/LedWorker/pkg/metrics"
)

const (
	subSystem = "bridge"
)

var (
	// Total number of pin writes
	pinWriteCounters = metrics.MustRegisterCounterVec(subSystem,
		"pin_write_total",
		"Total number of writes to an output pin",
		"pin")
	// Total number of failed pin writes
	pinWriteErrorCounters = metrics.MustRegisterCounterVec(subSystem,
		"pin_write_error_total",
		"Total number of failed writes to an output pin",
		"pin")
	// Total number of I2C operations
	i2cExecuteCounters = metrics.MustRegisterCounterVec(subSystem,
		"i2c_execute_total",
		"Total number of I2C operations",
		"address")
	// Total number of failed I2C operations
	i2cExecuteErrorCounters = metrics.MustRegisterCounterVec(subSystem,
		"i2c_execute_error_total",
		"Total number of failed I2C operations",
		"address")
	// Number of claimed pins
	claimedPinsGauge = metrics.MustRegisterGaugeVec(subSystem,
		"claimed_pins",
		"Number of claimed pins",
		"kind")
)

// countWrite updates the write metrics of a pin.
func countWrite(pin string, err error) error {
	pinWriteCounters.WithLabelValues(pin).Inc()
	if err != nil {
		pinWriteErrorCounters.WithLabelValues(pin).Inc()
	}
	return err
}
