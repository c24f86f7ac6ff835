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

package main

import "fmt"

func divide(x int) int {
	y := 0
	if x > 10 {
		y = 5
	}
	return x / y // @Warning(dbz)
}

func divideByConstant(x int) int {
	return x / 4 // @Ok(dbz)
}

func guarded(x, y int) int {
	if y <= 0 {
		return 0
	}
	return x % y // @Ok(dbz)
}

func zero() int {
	d := 0
	return 10 / d // @Error(dbz)
}

func increment(x int8) int8 {
	return x + 1 // @Warning(sio)
}

func double(x uint8) uint16 {
	y := uint16(x)
	return y * 2 // @Ok(uio)
}

func ignored(x int) int {
	y := x & 1
	//absint:ignore
	return x / y
}

func main() {
	fmt.Println(divide(11), divideByConstant(3), guarded(1, 2), zero(), increment(1), double(3), ignored(3))
}
