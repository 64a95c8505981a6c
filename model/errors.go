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

package model

import (
	"github.com/pkg/errors"
)

var (
	// ValidationError is the cause of all configuration errors.
	// Configuration errors are fatal at construction time.
	ValidationError = errors.New("validation failed")
	// InvalidArgumentError is the cause of all rejected effect parameters.
	InvalidArgumentError = errors.New("invalid argument")
	// UnsupportedError is returned when a request cannot be served in the
	// configured driver mode.
	UnsupportedError = errors.New("not supported")
	// ErrAlreadyReleased is returned by drivers that have released their outputs.
	ErrAlreadyReleased = errors.New("driver already released")
	maskAny            = errors.WithStack
)

// InvalidArgument creates an InvalidArgumentError with given message.
func InvalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(InvalidArgumentError, format, args...)
}

// Unsupported creates an UnsupportedError with given message.
func Unsupported(format string, args ...interface{}) error {
	return errors.Wrapf(UnsupportedError, format, args...)
}

// IsValidation returns true if the cause of the given error is a ValidationError.
func IsValidation(err error) bool {
	return errors.Cause(err) == ValidationError
}

// IsInvalidArgument returns true if the cause of the given error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	return errors.Cause(err) == InvalidArgumentError
}

// IsUnsupported returns true if the cause of the given error is an UnsupportedError.
func IsUnsupported(err error) bool {
	return errors.Cause(err) == UnsupportedError
}

// IsAlreadyReleased returns true if the cause of the given error is ErrAlreadyReleased.
func IsAlreadyReleased(err error) bool {
	return errors.Cause(err) == ErrAlreadyReleased
}
