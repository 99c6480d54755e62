package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskQueue_RunsInOrder(t *testing.T) {
	q := newTaskQueue()
	defer q.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.True(t, q.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestTaskQueue_SurvivesPanics(t *testing.T) {
	q := newTaskQueue()
	defer q.Close()

	ran := false
	q.Post(func() { panic("boom") })
	q.Post(func() { ran = true })
	q.Flush()
	require.True(t, ran)
}

func TestTaskQueue_PostFromTask(t *testing.T) {
	q := newTaskQueue()
	defer q.Close()

	done := make(chan struct{})
	q.Post(func() {
		q.Post(func() { close(done) })
	})
	<-done
}

func TestTaskQueue_Close(t *testing.T) {
	q := newTaskQueue()
	q.Close()
	require.False(t, q.Post(func() {}))
	q.Flush()
	q.Close()
}
