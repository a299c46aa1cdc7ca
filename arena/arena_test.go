// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocReleaseLifecycle(t *testing.T) {
	ctx := NewContext[float64](10)
	require.Equal(t, 0, ctx.InUse())

	bufs := make([][]float64, 0, 64)
	for i := 0; i < 64; i++ {
		bufs = append(bufs, ctx.Alloc())
	}
	require.Equal(t, 64, ctx.InUse())

	for _, b := range bufs {
		ctx.Release(b)
	}
	require.Equal(t, 0, ctx.InUse())
	ctx.Close()
}

func TestPaddingLanesZeroed(t *testing.T) {
	ctx := NewContext[float64](3)
	buf := ctx.Alloc()
	require.GreaterOrEqual(t, len(buf), 3)
	for _, v := range buf {
		require.Zero(t, v)
	}
	ctx.Release(buf)
	ctx.Close()
}

// TestContextReopenDifferentSize exercises S6: opening a context with
// n = 10, closing it, then reopening with a much larger n. Blocks sized
// for the first context's D are not reusable by the second and must be
// freed rather than corrupt the new context's buffers.
func TestContextReopenDifferentSize(t *testing.T) {
	small := NewContext[float64](10)
	var bufs [][]float64
	for i := 0; i < 20; i++ {
		bufs = append(bufs, small.Alloc())
	}
	for _, b := range bufs {
		small.Release(b)
	}
	small.Close()

	big := NewContext[float64](1000)
	b := big.Alloc()
	require.Equal(t, big.D(), len(b))
	for _, v := range b {
		require.Zero(t, v)
	}
	big.Release(b)
	big.Close()
}

func TestManyContextsDoNotLeak(t *testing.T) {
	for k := 0; k < 50; k++ {
		n := 1 + k%37
		ctx := NewContext[float64](n)
		var bufs [][]float64
		for i := 0; i < 8; i++ {
			bufs = append(bufs, ctx.Alloc())
		}
		for _, b := range bufs {
			ctx.Release(b)
		}
		ctx.Close()
	}
}

func TestReleaseUnownedBufferPanics(t *testing.T) {
	ctx := NewContext[float64](4)
	require.Panics(t, func() {
		ctx.Release(make([]float64, ctx.D()))
	})
}
