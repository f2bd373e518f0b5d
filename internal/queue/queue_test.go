package queue

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrder(t *testing.T) {
	q := New(4)
	require.True(t, q.Push("a.c"))
	require.True(t, q.Push("b.c"))
	assert.Equal(t, 4, q.Cap())

	p, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "a.c", p)

	q.Close()
	p, ok = q.Pop()
	assert.True(t, ok, "queued paths survive Close")
	assert.Equal(t, "b.c", p)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestCloseIdempotentAndRejectsPush(t *testing.T) {
	q := New(0)
	assert.Equal(t, 1, q.Cap())

	q.Close()
	assert.NotPanics(t, q.Close)
	assert.False(t, q.Push("late.c"))
}

func TestCloseReleasesAllConsumers(t *testing.T) {
	q := New(2)
	const consumers = 8

	done := make(chan struct{}, consumers)
	for i := 0; i < consumers; i++ {
		go func() {
			for {
				if _, ok := q.Pop(); !ok {
					done <- struct{}{}
					return
				}
			}
		}()
	}

	q.Close()
	for i := 0; i < consumers; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("consumer blocked after Close")
		}
	}
}

func TestConcurrentProducersAndConsumers(t *testing.T) {
	q := New(3)
	const producers, perProducer, consumers = 4, 50, 5

	var (
		mu  sync.Mutex
		got []string
		cwg sync.WaitGroup
	)
	for i := 0; i < consumers; i++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				p, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, p)
				mu.Unlock()
			}
		}()
	}

	var pwg sync.WaitGroup
	var want []string
	for i := 0; i < producers; i++ {
		for j := 0; j < perProducer; j++ {
			want = append(want, fmt.Sprintf("p%d/f%03d.c", i, j))
		}
		pwg.Add(1)
		go func(i int) {
			defer pwg.Done()
			for j := 0; j < perProducer; j++ {
				q.Push(fmt.Sprintf("p%d/f%03d.c", i, j))
			}
		}(i)
	}
	pwg.Wait()
	q.Close()
	cwg.Wait()

	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}
