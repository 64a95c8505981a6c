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

package util

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	err := UntilCanceled(ctx, zerolog.Nop(), "test", func() error {
		calls++
		if calls == 3 {
			cancel()
		}
		return errors.New("failure")
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestNextDelay(t *testing.T) {
	assert.Equal(t, 15*time.Millisecond, nextDelay(10*time.Millisecond))
	assert.Equal(t, maxRetryDelay, nextDelay(4*time.Second))
	assert.Equal(t, maxRetryDelay, nextDelay(maxRetryDelay))
}
