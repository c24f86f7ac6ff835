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

package value

import (
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/ar"
	"golang.org/x/exp/slices"
)

// PointsToSet is a finite set of memory objects, or top. The objects are kept sorted by name so that two equal sets
// print the same way.
type PointsToSet struct {
	top  bool
	objs []ar.MemoryObject
}

// TopPointsTo returns the set of all memory objects
func TopPointsTo() PointsToSet { return PointsToSet{top: true} }

// EmptyPointsTo returns the empty set
func EmptyPointsTo() PointsToSet { return PointsToSet{} }

// NewPointsTo returns the set of the given objects
func NewPointsTo(objs ...ar.MemoryObject) PointsToSet {
	s := PointsToSet{}
	for _, o := range objs {
		s = s.Add(o)
	}
	return s
}

// IsTop returns true if the set contains all objects
func (s PointsToSet) IsTop() bool { return s.top }

// IsEmpty returns true if the set is empty
func (s PointsToSet) IsEmpty() bool { return !s.top && len(s.objs) == 0 }

// Objects returns the objects of a finite set
func (s PointsToSet) Objects() []ar.MemoryObject { return s.objs }

// Singleton returns the only object of the set, if any
func (s PointsToSet) Singleton() (ar.MemoryObject, bool) {
	if s.top || len(s.objs) != 1 {
		return nil, false
	}
	return s.objs[0], true
}

// Contains returns true if o may be in the set
func (s PointsToSet) Contains(o ar.MemoryObject) bool {
	return s.top || slices.Contains(s.objs, o)
}

// Add returns s with o
func (s PointsToSet) Add(o ar.MemoryObject) PointsToSet {
	if s.Contains(o) {
		return s
	}
	objs := append(slices.Clone(s.objs), o)
	slices.SortStableFunc(objs, func(a, b ar.MemoryObject) bool { return a.MemoryName() < b.MemoryName() })
	return PointsToSet{objs: objs}
}

// Leq returns true if s is included in o
func (s PointsToSet) Leq(o PointsToSet) bool {
	if o.top {
		return true
	}
	if s.top {
		return false
	}
	for _, x := range s.objs {
		if !slices.Contains(o.objs, x) {
			return false
		}
	}
	return true
}

// Equals returns true if the sets are equal
func (s PointsToSet) Equals(o PointsToSet) bool { return s.Leq(o) && o.Leq(s) }

// Join returns the union of the sets
func (s PointsToSet) Join(o PointsToSet) PointsToSet {
	if s.top || o.top {
		return TopPointsTo()
	}
	r := s
	for _, x := range o.objs {
		r = r.Add(x)
	}
	return r
}

// Meet returns the intersection of the sets
func (s PointsToSet) Meet(o PointsToSet) PointsToSet {
	if s.top {
		return o
	}
	if o.top {
		return s
	}
	r := PointsToSet{}
	for _, x := range s.objs {
		if slices.Contains(o.objs, x) {
			r.objs = append(r.objs, x)
		}
	}
	return r
}

func (s PointsToSet) String() string {
	if s.top {
		return "T"
	}
	names := make([]string, len(s.objs))
	for i, o := range s.objs {
		names[i] = o.MemoryName()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
