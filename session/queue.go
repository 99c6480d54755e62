package session

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// taskQueue runs posted tasks one at a time, in order, on its own goroutine.
// Posting never blocks, so it is safe from inside a backend change listener.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Post schedules task. It reports false once the queue is closed.
func (q *taskQueue) Post(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, task)
	q.cond.Signal()
	return true
}

// Flush waits until every task posted before the call has run. It must not be
// called from a task.
func (q *taskQueue) Flush() {
	flushed := make(chan struct{})
	if !q.Post(func() { close(flushed) }) {
		<-q.done
		return
	}
	select {
	case <-flushed:
	case <-q.done:
	}
}

// Close drops pending tasks and waits for the running one to return
func (q *taskQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.tasks = nil
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *taskQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		runTask(task)
	}
}

func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Session task panicked")
		}
	}()
	task()
}
