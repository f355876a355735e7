// Copyright 2025 Poiesic Systems
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


package storage

import (
	"github.com/poiesic/lookbook/core"
)

// MarshalSyncCheckpoint serializes a SyncCheckpoint to bytes.
func MarshalSyncCheckpoint(checkpoint *core.SyncCheckpoint) []byte {
	buf := make([]byte, core.SyncCheckpointMUS.Size(*checkpoint))
	core.SyncCheckpointMUS.Marshal(*checkpoint, buf)
	return buf
}

// UnmarshalSyncCheckpoint deserializes a SyncCheckpoint from bytes.
func UnmarshalSyncCheckpoint(data []byte) (*core.SyncCheckpoint, error) {
	checkpoint, _, err := core.SyncCheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}
