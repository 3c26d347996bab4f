// Package webstub is a fixture implementation of collab.Web for tests and
// offline runs. It returns a canned result per query, or a fixed default.
package webstub

import (
	"context"
	"fmt"
	"sync"

	"github.com/sunkencity999/agentic-orchestrator/internal/collab"
)

// Stub implements collab.Web from canned fixtures. Safe for concurrent
// use; it records every query it receives.
type Stub struct {
	mu      sync.Mutex
	fixed   map[string]collab.WebResult
	def     *collab.WebResult
	err     error
	Queries []string
}

// New returns an empty stub: every Browse fails with a "no fixture" error
// until a result is configured.
func New() *Stub {
	return &Stub{fixed: make(map[string]collab.WebResult)}
}

// SetResult configures the result returned for an exact query.
func (s *Stub) SetResult(query string, r collab.WebResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed[query] = r
}

// SetDefault configures the result returned for any query without an
// exact fixture.
func (s *Stub) SetDefault(r collab.WebResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = &r
}

// SetError makes every Browse fail with err.
func (s *Stub) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Browse implements collab.Web.
func (s *Stub) Browse(ctx context.Context, query string) (collab.WebResult, error) {
	if err := ctx.Err(); err != nil {
		return collab.WebResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, query)

	if s.err != nil {
		return collab.WebResult{}, s.err
	}
	if r, ok := s.fixed[query]; ok {
		return r, nil
	}
	if s.def != nil {
		return *s.def, nil
	}
	return collab.WebResult{}, fmt.Errorf("no fixture for query %q", query)
}

// BrowseCount returns how many times Browse was called.
func (s *Stub) BrowseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Queries)
}
