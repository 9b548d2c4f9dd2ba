// Copyright 2024 The Cockroach Authors
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

package primmap

import "github.com/cockroachdb/errors"

// Construction errors. New and the other constructors panic with an error
// wrapping one of these when handed invalid arguments.
var (
	ErrInvalidLoadFactor = errors.New("primmap: load factor must be in the open interval (0, 1)")
	ErrInvalidCapacity   = errors.New("primmap: capacity must be non-negative")
	ErrCapacityExceeded  = errors.New("primmap: capacity exceeds the maximum table size")
	ErrMismatchedSlices  = errors.New("primmap: keys and values have different lengths")
)

// ErrIllegalState is wrapped by the panic raised when an iterator or one of
// its cursors is used in a state that does not permit the operation.
var ErrIllegalState = errors.New("primmap: illegal iterator state")

// ErrCorrupted is wrapped by the assertion failure raised when the table
// observes fewer live slots than its recorded size. This is the symptom of
// unsynchronized concurrent mutation.
var ErrCorrupted = errors.New("primmap: map structure corrupted")

func illegalState(format string, args ...interface{}) error {
	return errors.Wrapf(ErrIllegalState, format, args...)
}

func corrupted(format string, args ...interface{}) error {
	return errors.WithAssertionFailure(errors.Wrapf(ErrCorrupted, format, args...))
}
