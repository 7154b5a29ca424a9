package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const window = 30 * time.Millisecond

func TestSchedule_OnlyLastFires(t *testing.T) {
	m := New()

	var mu sync.Mutex
	var got []int
	for i := 1; i <= 5; i++ {
		n := i
		m.Schedule("k", func() {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		}, window)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(2 * window)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{5}, got)
	assert.Equal(t, 0, m.Len())
}

func TestSchedule_KeysAreIndependent(t *testing.T) {
	m := New()
	var a, b atomic.Int32

	m.Schedule("a", func() { a.Add(1) }, window)
	m.Schedule("b", func() { b.Add(1) }, window)
	m.Schedule("a", func() { a.Add(1) }, window)

	assert.Eventually(t, func() bool {
		return a.Load() == 1 && b.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCancel(t *testing.T) {
	m := New()
	var fired atomic.Bool

	m.Schedule("k", func() { fired.Store(true) }, window)
	assert.True(t, m.Pending("k"))
	assert.True(t, m.Cancel("k"))
	assert.False(t, m.Pending("k"))

	time.Sleep(3 * window)
	assert.False(t, fired.Load())
}

func TestCancel_UnknownKeyIsNoop(t *testing.T) {
	m := New()
	assert.False(t, m.Cancel("never-scheduled"))
	assert.Equal(t, 0, m.Len())
}

func TestCancelAll(t *testing.T) {
	m := New()
	var fired atomic.Int32

	m.Schedule("a", func() { fired.Add(1) }, window)
	m.Schedule("b", func() { fired.Add(1) }, window)
	assert.Equal(t, 2, m.Len())

	m.CancelAll()
	assert.Equal(t, 0, m.Len())

	time.Sleep(3 * window)
	assert.Equal(t, int32(0), fired.Load())
}
