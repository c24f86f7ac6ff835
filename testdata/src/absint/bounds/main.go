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

func sum() int {
	var a [8]int
	s := 0
	for i := 0; i < 8; i++ {
		s += a[i] // @Ok(boa)
	}
	return s
}

func get(i int) int {
	var a [4]int
	if i >= 0 && i <= 4 {
		return a[i] // @Warning(boa)
	}
	return 0
}

func main() {
	fmt.Println(sum(), get(2))
}
