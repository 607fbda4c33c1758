// Package queue implements the unbounded result channel between scrape
// workers and the writer sink.
package queue

import (
	"sync"
	"time"

	"github.com/laborview/jobspider/internal/spider"
)

// Queue is an unbounded multi-producer/single-consumer queue of items.
// Push never blocks; Pop blocks up to an idle timeout. Enqueue order is
// preserved per producer.
type Queue struct {
	mu     sync.Mutex
	items  []spider.Item
	signal chan struct{}
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
	}
}

// Push appends an item. Safe for concurrent use by many producers.
func (q *Queue) Push(item spider.Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop returns the next item. When nothing arrives within idle it returns
// ok=false, which the sink treats as end-of-batch rather than an error.
func (q *Queue) Pop(idle time.Duration) (spider.Item, bool) {
	timer := time.NewTimer(idle)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-timer.C:
			return spider.Item{}, false
		}
	}
}

// Len reports the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
