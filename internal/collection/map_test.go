package collection

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMap_GetOrPut(t *testing.T) {
	m := NewSyncMap[string, int]()
	_, ok := m.Get("key")
	assert.False(t, ok)

	var built int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := m.GetOrPut("key", func() int {
				atomic.AddInt32(&built, 1)
				return 7
			})
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, built)
	v, ok := m.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 8, m.GetOrPut("other", func() int { return 8 }))
}
