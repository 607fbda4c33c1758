// Package spider defines core types shared across the crawl subsystems.
package spider

// Provider is the label stamped on every record emitted by this crawler.
const Provider = "前程无忧网"

// Task is one (city, keyword) crawl unit with its own result cap.
// Tasks are immutable values; identity is the (City, Keyword) pair.
type Task struct {
	City    string
	Keyword string
	Limit   int
}

// Name returns the human-readable task identity used in logs.
func (t Task) Name() string {
	return t.City + "-" + t.Keyword
}

// Record is one normalized job posting. Provider and Keyword are always
// set; every other field may be empty when the remote payload omits it.
type Record struct {
	Provider    string
	Keyword     string
	Title       string
	Place       string
	Salary      string
	Experience  string
	Education   string
	CompanyType string
	Industry    string
	Description string
}

// Columns is the fixed artifact column order.
var Columns = []string{
	"provider", "keyword", "title", "place", "salary",
	"experience", "education", "companytype", "industry", "description",
}

// Row returns the record's fields in Columns order.
func (r Record) Row() []string {
	return []string{
		r.Provider, r.Keyword, r.Title, r.Place, r.Salary,
		r.Experience, r.Education, r.CompanyType, r.Industry, r.Description,
	}
}

// Item is one entry on the result queue: either a record or the
// end-of-stream sentinel.
type Item struct {
	Record   Record
	Sentinel bool
}

// SentinelItem returns the end-of-stream marker. It is pushed exactly once
// per batch, after every producer has joined.
func SentinelItem() Item {
	return Item{Sentinel: true}
}

// TerminalStatus says why a task's worker stopped.
type TerminalStatus string

// Terminal statuses. The first condition reached wins.
const (
	StatusExhausted    TerminalStatus = "exhausted"
	StatusLimitReached TerminalStatus = "limit_reached"
	StatusFetchError   TerminalStatus = "fetch_error"
)
