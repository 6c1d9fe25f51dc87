package refresh

import (
	"net/http"
	"sync"
)

// Outcome settles an Entry: either the request to replay or the refresh failure.
type Outcome struct {
	Request *http.Request
	Err     error
}

// Entry is one request suspended until the current refresh settles.
type Entry struct {
	request *http.Request
	// stale is the credential the request failed with.
	stale string
	done  chan Outcome
}

// NewEntry creates an entry owning req, which failed with credential.
// req must not be shared with other goroutines.
func NewEntry(req *http.Request, credential string) *Entry {
	return &Entry{
		request: req,
		stale:   credential,
		done:    make(chan Outcome, 1),
	}
}

// Request returns the request held by the entry.
func (e *Entry) Request() *http.Request {
	return e.request
}

// Done delivers the outcome exactly once.
func (e *Entry) Done() <-chan Outcome {
	return e.done
}

func (e *Entry) resolve(req *http.Request) {
	e.done <- Outcome{Request: req}
}

func (e *Entry) reject(err error) {
	e.done <- Outcome{Err: err}
}

// Queue holds entries in arrival order until drained. A queue is drained at most once.
type Queue struct {
	mux     sync.Mutex
	entries []*Entry
	drained bool
}

// Enqueue appends entry to the tail. Entries added after Drain are never settled,
// so the owner must swap in a fresh queue before draining.
func (q *Queue) Enqueue(entry *Entry) {
	q.mux.Lock()
	defer q.mux.Unlock()
	q.entries = append(q.entries, entry)
}

// Len returns the number of waiting entries.
func (q *Queue) Len() int {
	q.mux.Lock()
	defer q.mux.Unlock()
	return len(q.entries)
}

// Drain settles every entry in arrival order and returns how many were settled.
// With a nil err each request gets token attached and is resolved for replay;
// otherwise every entry is rejected with err. Subsequent calls are no-ops.
func (q *Queue) Drain(token string, err error, attach TokenAttacher) int {
	q.mux.Lock()
	defer q.mux.Unlock()
	if q.drained {
		return 0
	}
	q.drained = true
	entries := q.entries
	q.entries = nil
	for _, entry := range entries {
		if err != nil {
			entry.reject(err)
			continue
		}
		attach(entry.request, token)
		entry.resolve(entry.request)
	}
	return len(entries)
}
