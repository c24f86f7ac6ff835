// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ar

import (
	"go/token"
	"sync"
)

// FrontendKey is a weak reference from an AR object to the front-end object it was translated from. The key is only
// meaningful for the FrontendTable of the bundle; the table is owned by the front-end, not by the AR.
type FrontendKey uint64

// NoFrontend is the key of objects without front-end correlation
const NoFrontend FrontendKey = 0

// FrontendTable resolves front-end keys
type FrontendTable interface {
	// Position returns the source position of the key, if the front-end object still exists
	Position(key FrontendKey) (token.Position, bool)
}

// PositionTable is a FrontendTable storing source positions. It is safe for concurrent use.
type PositionTable struct {
	mu        sync.RWMutex
	positions []token.Position
}

// NewPositionTable returns an empty position table
func NewPositionTable() *PositionTable {
	return &PositionTable{}
}

// Add records a position and returns its key
func (t *PositionTable) Add(pos token.Position) FrontendKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions = append(t.positions, pos)
	return FrontendKey(len(t.positions))
}

// Position implements FrontendTable
func (t *PositionTable) Position(key FrontendKey) (token.Position, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if key == NoFrontend || int(key) > len(t.positions) {
		return token.Position{}, false
	}
	return t.positions[key-1], true
}
