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

package divide

func zero() int {
	d := 0
	return 10 / d // want "division-by-zero: divisor"
}

func maybe(x int) int {
	y := 0
	if x > 0 {
		y = x
	}
	return 100 / y // want "possible division-by-zero"
}

func safe(x int) int {
	if x <= 0 {
		return 0
	}
	return 100 / x
}

func sum() int {
	var a [4]int
	s := 0
	for i := 0; i < 4; i++ {
		s += a[i] / 2
	}
	return s
}

func ignored(x int) int {
	return 100 / x //absint:ignore
}
