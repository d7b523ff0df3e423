package sync_pool_test

import (
	"testing"

	"github.com/named-data/lfq/std/types/sync_pool"
	"github.com/stretchr/testify/require"
)

func TestSyncPool(t *testing.T) {
	allocs := 0
	pool := sync_pool.New(
		func() *[]int {
			allocs++
			s := make([]int, 0, 8)
			return &s
		},
		func(s *[]int) { *s = (*s)[:0] })

	buf := pool.Get()
	require.Equal(t, 1, allocs)
	require.Empty(t, *buf)

	*buf = append(*buf, 1, 2, 3)
	pool.Put(buf)

	// reuse is not guaranteed, but every value comes back reset
	for i := 0; i < 4; i++ {
		buf = pool.Get()
		require.Empty(t, *buf)
		require.GreaterOrEqual(t, cap(*buf), 8)
		pool.Put(buf)
	}
}
