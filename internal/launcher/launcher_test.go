package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/queue"
	"github.com/laborview/jobspider/internal/spider"
)

type staticResolver struct{}

func (staticResolver) Resolve(string) string { return "000000" }

// scriptSession serves `total` postings on page one, then an empty page.
type scriptSession struct {
	id            int
	total         int
	panicOnSearch bool
	closed        bool
}

func (s *scriptSession) Prime(context.Context, string) error { return nil }

func (s *scriptSession) Search(_ context.Context, _ string, page int, _ string) ([]byte, error) {
	if s.panicOnSearch {
		panic("browser died")
	}
	if page > 1 {
		return sessionBody(s.id, 0), nil
	}
	return sessionBody(s.id, s.total), nil
}

func (s *scriptSession) Close() error {
	s.closed = true
	return nil
}

func sessionBody(id, n int) []byte {
	items := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]string{"jobName": fmt.Sprintf("s%d-%d", id, i)})
	}
	body, err := json.Marshal(map[string]any{
		"resultbody": map[string]any{"job": map[string]any{"items": items}},
	})
	if err != nil {
		panic(err)
	}
	return body
}

type scriptFactory struct {
	mu       sync.Mutex
	total    int
	panicIdx int // session index that panics on search; -1 for none
	newErr   error
	sessions []*scriptSession
}

func (f *scriptFactory) New(context.Context) (spider.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		return nil, f.newErr
	}
	s := &scriptSession{
		id:            len(f.sessions),
		total:         f.total,
		panicOnSearch: len(f.sessions) == f.panicIdx,
	}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func drain(t *testing.T, q *queue.Queue) (records []spider.Record, sentinels int, sentinelLast bool) {
	t.Helper()
	for {
		item, ok := q.Pop(50 * time.Millisecond)
		if !ok {
			return records, sentinels, sentinelLast
		}
		if item.Sentinel {
			sentinels++
			sentinelLast = true
			continue
		}
		sentinelLast = false
		records = append(records, item.Record)
	}
}

func tasks(n, limit int) []spider.Task {
	out := make([]spider.Task, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, spider.Task{City: "北京", Keyword: fmt.Sprintf("kw-%d", i), Limit: limit})
	}
	return out
}

func TestRunConcurrentJoinsAllThenSentinel(t *testing.T) {
	t.Parallel()

	q := queue.New()
	factory := &scriptFactory{total: 5, panicIdx: -1}
	l := New(Config{Concurrent: true, Stagger: time.Millisecond}, factory, staticResolver{}, q, zap.NewNop())

	l.Run(context.Background(), tasks(3, 100))

	records, sentinels, sentinelLast := drain(t, q)
	require.Len(t, records, 15)
	require.Equal(t, 1, sentinels)
	require.True(t, sentinelLast, "sentinel must arrive after every producer's records")
	for _, s := range factory.sessions {
		require.True(t, s.closed)
	}
}

func TestRunCrashedWorkerDoesNotStallSiblings(t *testing.T) {
	t.Parallel()

	q := queue.New()
	factory := &scriptFactory{total: 4, panicIdx: 1}
	l := New(Config{Concurrent: true, Stagger: time.Millisecond}, factory, staticResolver{}, q, zap.NewNop())

	l.Run(context.Background(), tasks(3, 100))

	records, sentinels, sentinelLast := drain(t, q)
	require.Len(t, records, 8, "two surviving workers deliver full results")
	require.Equal(t, 1, sentinels)
	require.True(t, sentinelLast)

	require.Len(t, factory.sessions, 3)
	for _, s := range factory.sessions {
		require.True(t, s.closed, "session must be released on every exit path")
	}
}

func TestRunSequentialPreservesTaskOrder(t *testing.T) {
	t.Parallel()

	q := queue.New()
	factory := &scriptFactory{total: 2, panicIdx: -1}
	l := New(Config{Concurrent: false, Stagger: time.Millisecond}, factory, staticResolver{}, q, zap.NewNop())

	l.Run(context.Background(), tasks(3, 100))

	records, sentinels, sentinelLast := drain(t, q)
	require.Len(t, records, 6)
	require.Equal(t, 1, sentinels)
	require.True(t, sentinelLast)

	// Serial mode runs one task at a time, so sessions emit in order.
	var sources []string
	for _, r := range records {
		sources = append(sources, strings.SplitN(r.Title, "-", 2)[0])
	}
	require.Equal(t, []string{"s0", "s0", "s1", "s1", "s2", "s2"}, sources)
}

func TestRunSessionCreateFailureStillSendsSentinel(t *testing.T) {
	t.Parallel()

	q := queue.New()
	factory := &scriptFactory{newErr: errors.New("chrome not found")}
	l := New(Config{Concurrent: true, Stagger: time.Millisecond}, factory, staticResolver{}, q, zap.NewNop())

	l.Run(context.Background(), tasks(2, 10))

	records, sentinels, _ := drain(t, q)
	require.Empty(t, records)
	require.Equal(t, 1, sentinels)
}

func TestLaunchAllStaggersStarts(t *testing.T) {
	t.Parallel()

	q := queue.New()
	factory := &scriptFactory{total: 1, panicIdx: -1}
	l := New(Config{Concurrent: true, Stagger: 50 * time.Millisecond}, factory, staticResolver{}, q, zap.NewNop())

	start := time.Now()
	l.Run(context.Background(), tasks(3, 10))
	// First launch is immediate, the next two wait one stagger each.
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestLaunchAllStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := queue.New()
	factory := &scriptFactory{total: 1, panicIdx: -1}
	l := New(Config{Concurrent: true, Stagger: time.Hour}, factory, staticResolver{}, q, zap.NewNop())

	done := make(chan struct{})
	go func() {
		l.Run(ctx, tasks(5, 10))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("launcher did not stop after context cancellation")
	}
}
