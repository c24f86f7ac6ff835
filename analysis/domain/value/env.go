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

// Environments map keys to abstract values, where a missing key stands for the top value. The helpers below
// implement the lattice operations of environments from the operations on the values.

// leqEnv returns true if a <= b. top returns the value of a key missing in a, given the value in b.
func leqEnv[K comparable, V any](a, b map[K]V, top func(K, V) V, leq func(V, V) bool) bool {
	for k, bv := range b {
		av, ok := a[k]
		if !ok {
			av = top(k, bv)
		}
		if !leq(av, bv) {
			return false
		}
	}
	return true
}

// joinEnv applies op on the keys present in both environments. The other keys are top in the result.
func joinEnv[K comparable, V any](a, b map[K]V, op func(V, V) V) map[K]V {
	r := make(map[K]V, len(a))
	for k, av := range a {
		if bv, ok := b[k]; ok {
			r[k] = op(av, bv)
		}
	}
	return r
}

// meetEnv applies op on the keys present in both environments and keeps the keys present in only one.
func meetEnv[K comparable, V any](a, b map[K]V, op func(V, V) V) map[K]V {
	r := make(map[K]V, len(a)+len(b))
	for k, av := range a {
		if bv, ok := b[k]; ok {
			r[k] = op(av, bv)
		} else {
			r[k] = av
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			r[k] = bv
		}
	}
	return r
}
