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

import (
	"fmt"
	"unsafe"
)

type node struct {
	val  int
	next *node
}

func alloc(n uintptr) unsafe.Pointer { return nil }

func release(p unsafe.Pointer) {}

func first(n *node) int {
	if n == nil {
		return n.val // @Error(nullity)
	}
	return n.val // @Ok(nullity)
}

func useAfterFree() int {
	p := (*int)(alloc(8))
	*p = 1 // @Ok(uaf)
	release(unsafe.Pointer(p))
	return *p // @Error(uaf)
}

func main() {
	fmt.Println(first(&node{}), useAfterFree())
}
