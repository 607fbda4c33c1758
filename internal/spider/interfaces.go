package spider

import (
	"context"
	"time"
)

// Session is one browser-automation (or plain HTTP) session. A session is
// exclusively owned by exactly one worker for its whole lifetime and is
// never shared.
type Session interface {
	// Prime navigates to the provider's search page to establish cookies
	// before the first API call.
	Prime(ctx context.Context, geoCode string) error
	// Search fetches one page of results and returns the raw JSON body.
	Search(ctx context.Context, keyword string, page int, geoCode string) ([]byte, error)
	Close() error
}

// SessionFactory builds a fresh session per task.
type SessionFactory interface {
	New(ctx context.Context) (Session, error)
}

// Resolver maps a city name to a provider geographic code. It never fails;
// unknown cities resolve to the nationwide default.
type Resolver interface {
	Resolve(city string) string
}

// Queue is the producer side of the result channel.
type Queue interface {
	Push(item Item)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
