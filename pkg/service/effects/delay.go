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
	"context"
	"time"
)

// Delayer is the blocking delay between two steps of an effect.
// Delay must return ctx.Err() as soon as the context is canceled.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

// DelayerFunc adapts a function to a Delayer.
type DelayerFunc func(ctx context.Context, d time.Duration) error

// Delay calls f(ctx, d).
func (f DelayerFunc) Delay(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerDelayer waits using a timer.
var TimerDelayer Delayer = DelayerFunc(timerDelay)

func timerDelay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
