// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simdpack

import "unsafe"

// Alignment is the byte boundary AlignedAlloc guarantees, wide enough for
// every lane width hwy currently targets (AVX-512 = 64 bytes).
const Alignment = 64

// AlignedAlloc returns a []T of length n (rounded up to a multiple of
// Width[T]()) whose backing array starts on an Alignment-byte boundary.
//
// No package in the retrieval pack exposes posix_memalign-style allocation
// for a plain Go slice (hwy's own Load/Zero/Set allocate ordinary unaligned
// slices), so the pointer arithmetic below is the one corner of this module
// built directly on unsafe rather than a third-party helper.
func AlignedAlloc[T Real](n int) []T {
	n = NextMultipleOfWidth[T](n)
	var zero T
	elemSize := unsafe.Sizeof(zero)
	raw := make([]T, n+int(Alignment/elemSize))
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (Alignment - addr%Alignment) % Alignment
	start := offset / elemSize
	return raw[start : start+uintptr(n) : start+uintptr(n)]
}

// AlignedBytes returns a cache-aligned []byte of exactly n bytes. The arena
// does not use it; its blocks come from AlignedAlloc[T].
func AlignedBytes(n int) []byte {
	raw := make([]byte, n+Alignment)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (Alignment - addr%Alignment) % Alignment
	return raw[offset : offset+uintptr(n) : offset+uintptr(n)]
}
