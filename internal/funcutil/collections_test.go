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

package funcutil

import (
	"reflect"
	"strconv"
	"testing"
)

func TestMap(t *testing.T) {
	a := []int{1, 2, 3}
	if b := Map(a, strconv.Itoa); !reflect.DeepEqual(b, []string{"1", "2", "3"}) {
		t.Errorf("wrong map: %v", b)
	}
	if b := Map(nil, strconv.Itoa); len(b) != 0 {
		t.Errorf("map of nil should be empty: %v", b)
	}
	MapInPlace(a, func(x int) int { return x * 2 })
	if !reflect.DeepEqual(a, []int{2, 4, 6}) {
		t.Errorf("wrong map in place: %v", a)
	}
}

func TestMapParallel(t *testing.T) {
	var a []int
	for i := 0; i < 100; i++ {
		a = append(a, i)
	}
	for _, n := range []int{0, 1, 8} {
		res := MapParallel(a, func(x int) int { return x * x }, n)
		if len(res) != len(a) {
			t.Fatalf("%d routines: %d results", n, len(res))
		}
		for i, x := range res {
			if x != i*i {
				t.Errorf("%d routines: result %d is %d", n, i, x)
			}
		}
	}
}
