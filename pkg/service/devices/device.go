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

// Device contains the API that is supported by all LED drivers.
type Device interface {
	// Configure is called once to put the device in the desired (off) state.
	Configure(ctx context.Context) error
	// Off turns all channels off.
	Off(ctx context.Context) error
	// Close brings all channels to a safe state and releases the outputs.
	// Close must be called exactly once; further calls return ErrAlreadyReleased.
	Close(ctx context.Context) error
	// Mode returns the mode of the driver.
	Mode() model.DriverMode
	// State returns the last committed state of the driver.
	State() model.State
}

// ChangeListener is called after every committed change of a driver.
type ChangeListener func(model.State)
