// Copyright 2025 Blink Labs Software
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

package types

import (
	"slices"
)

const (
	// RecordBlobKeyPrefix prefixes every addressed registry record
	RecordBlobKeyPrefix = "r"
)

// RecordBlobKey returns the blob key for a record stored at the given address
func RecordBlobKey(addr []byte) []byte {
	return slices.Concat([]byte(RecordBlobKeyPrefix), addr)
}
