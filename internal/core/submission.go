package core

import (
	"sync"
	"time"

	"github.com/JonMunkholm/packlist/internal/generate"
	"github.com/JonMunkholm/packlist/internal/packing"
	"github.com/JonMunkholm/packlist/internal/reconcile"
)

// MaxRetainedSubmissions bounds the in-memory working set. The oldest
// submission is evicted first.
const MaxRetainedSubmissions = 256

// SubmissionStatus summarizes the latest reconciliation of a submission.
type SubmissionStatus string

const (
	StatusComplete SubmissionStatus = "complete" // every item has an artifact
	StatusPartial  SubmissionStatus = "partial"  // some items are unmatched
	StatusDegraded SubmissionStatus = "degraded" // only the sample was offered
	StatusUnusable SubmissionStatus = "unusable" // artifacts exist but none fit an item
	StatusFailed   SubmissionStatus = "failed"   // generator never ran or nothing to offer
)

// Submission is one batch handed to the generator, with the outcome of the
// run and the latest reconciliation.
type Submission struct {
	ID        string            `json:"id"`
	Status    SubmissionStatus  `json:"status"`
	Items     []packing.Item    `json:"items"`
	Outcome   generate.Outcome  `json:"outcome"`
	Report    *reconcile.Report `json:"report,omitempty"`
	Entries   []reconcile.Entry `json:"entries"`
	Attempts  int               `json:"attempts"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// applyReport records a reconciliation and derives the status from it.
func (s *Submission) applyReport(report *reconcile.Report, err error) {
	s.Attempts++
	s.UpdatedAt = time.Now()
	s.Report = report
	s.Entries = nil
	s.Error = ""
	if report != nil {
		s.Entries = report.Entries()
	}
	if err != nil {
		s.Error = err.Error()
	}

	switch {
	case report == nil || err != nil:
		s.Status = StatusFailed
	case report.Degraded:
		s.Status = StatusDegraded
	case report.Unusable:
		s.Status = StatusUnusable
	case report.Complete():
		s.Status = StatusComplete
	default:
		s.Status = StatusPartial
	}
}

// submissionStore keeps recent submissions in insertion order.
type submissionStore struct {
	mu    sync.RWMutex
	max   int
	order []string
	byID  map[string]*Submission
}

func newSubmissionStore(max int) *submissionStore {
	if max <= 0 {
		max = MaxRetainedSubmissions
	}
	return &submissionStore{max: max, byID: make(map[string]*Submission)}
}

func (st *submissionStore) put(sub *Submission) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.byID[sub.ID]; !ok {
		st.order = append(st.order, sub.ID)
	}
	st.byID[sub.ID] = sub

	for len(st.order) > st.max {
		delete(st.byID, st.order[0])
		st.order = st.order[1:]
	}
}

// get returns a copy so callers never race with a concurrent reconcile.
func (st *submissionStore) get(id string) (Submission, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sub, ok := st.byID[id]
	if !ok {
		return Submission{}, false
	}
	return *sub, true
}

// update runs fn on the stored submission under the write lock.
func (st *submissionStore) update(id string, fn func(*Submission)) (Submission, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sub, ok := st.byID[id]
	if !ok {
		return Submission{}, false
	}
	fn(sub)
	return *sub, true
}

// list returns copies, newest first.
func (st *submissionStore) list() []Submission {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]Submission, 0, len(st.order))
	for i := len(st.order) - 1; i >= 0; i-- {
		out = append(out, *st.byID[st.order[i]])
	}
	return out
}

// evictBefore drops submissions last updated before cutoff.
func (st *submissionStore) evictBefore(cutoff time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	kept := st.order[:0]
	evicted := 0
	for _, id := range st.order {
		if st.byID[id].UpdatedAt.Before(cutoff) {
			delete(st.byID, id)
			evicted++
			continue
		}
		kept = append(kept, id)
	}
	st.order = kept
	return evicted
}
