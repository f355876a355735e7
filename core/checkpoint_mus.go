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


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// SyncCheckpointMUS serializes SyncCheckpoint values in MUS format.
// UpdatedAt is stored as Unix microseconds.
var SyncCheckpointMUS = syncCheckpointMUS{}

type syncCheckpointMUS struct{}

func (s syncCheckpointMUS) Marshal(v SyncCheckpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.StoreID, bs)
	n += varint.Int.Marshal(v.LastPage, bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return
}

func (s syncCheckpointMUS) Unmarshal(bs []byte) (v SyncCheckpoint, n int, err error) {
	v.StoreID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.LastPage, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (s syncCheckpointMUS) Size(v SyncCheckpoint) (size int) {
	size = ord.String.Size(v.StoreID)
	size += varint.Int.Size(v.LastPage)
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return
}
