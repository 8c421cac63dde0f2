package workflow

import (
	"errors"
	"sync"
	"time"

	"github.com/cert-roster-api/internal/models"
)

// State is the batch workflow stage
type State string

const (
	StateUpload     State = "UPLOAD"
	StateReview     State = "REVIEW"
	StateSubmitting State = "SUBMITTING"
	StateComplete   State = "COMPLETE"
)

// Transition refusal reasons, surfaced distinctly to the operator.
var (
	ErrUnresolvedMismatches = errors.New("rows with unresolved course mismatches remain")
	ErrNoLocation           = errors.New("a location must be selected before submitting")
	ErrUnconfirmed          = errors.New("validation checklist has not been confirmed")
	ErrNoData               = errors.New("no parsed roster data to review")
	ErrNotReviewing         = errors.New("batch is not in review")
	ErrNotSubmitting        = errors.New("batch is not submitting")
)

// Session owns the mutable state of one in-flight roster batch. All fields
// are guarded by the mutex; a session is never shared between batches.
type Session struct {
	ID string

	mu         sync.Mutex
	state      State
	entries    []*models.RosterEntry
	locationID string
	courseID   string
	confirmed  bool
	status     *models.ProcessingStatus
	generation int
	resetDelay time.Duration
	resetTimer *time.Timer
}

// NewSession creates a session in the UPLOAD state
func NewSession(id string, resetDelay time.Duration) *Session {
	return &Session{
		ID:         id,
		state:      StateUpload,
		resetDelay: resetDelay,
	}
}

// State returns the current workflow state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Entries returns the parsed roster rows under review
func (s *Session) Entries() []*models.RosterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// Status returns the processing status of the current submission, if any
func (s *Session) Status() *models.ProcessingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetSelections records the operator's location/course choices and
// checklist confirmation.
func (s *Session) SetSelections(locationID, courseID string, confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationID = locationID
	s.courseID = courseID
	s.confirmed = confirmed
}

// LocationID returns the selected location
func (s *Session) LocationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locationID
}

// LoadReview moves UPLOAD -> REVIEW once parsed, validated, matched data is
// available. Empty data keeps the session in UPLOAD.
func (s *Session) LoadReview(entries []*models.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(entries) == 0 {
		return ErrNoData
	}
	s.entries = entries
	s.state = StateReview
	return nil
}

// BeginSubmit gates REVIEW -> SUBMITTING. Every guard is checked so the
// refusal reason reported is the most actionable one: mismatches first,
// then location, then the confirmation checklist.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReview {
		return ErrNotReviewing
	}
	for _, entry := range s.entries {
		if entry.Match.Blocking() {
			return ErrUnresolvedMismatches
		}
	}
	if s.locationID == "" {
		return ErrNoLocation
	}
	if !s.confirmed {
		return ErrUnconfirmed
	}

	s.state = StateSubmitting
	s.status = &models.ProcessingStatus{Total: len(s.entries)}
	return nil
}

// CompleteSubmit moves SUBMITTING -> COMPLETE once all rows have been
// attempted, then arms the automatic reset timer. Selections are kept until
// the reset fires so a late progress update cannot corrupt a new batch.
func (s *Session) CompleteSubmit(status *models.ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSubmitting {
		return ErrNotSubmitting
	}
	if status != nil && !status.Done() {
		return errors.New("submission is not finished")
	}
	s.status = status
	s.state = StateComplete

	if s.resetDelay > 0 {
		gen := s.generation
		s.resetTimer = time.AfterFunc(s.resetDelay, func() {
			s.resetIfCurrent(gen)
		})
	}
	return nil
}

// FailSubmit returns a hard submission error to REVIEW, preserving the
// operator's review data instead of silently dropping progress.
func (s *Session) FailSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		s.state = StateReview
		s.status = nil
	}
}

// UpdateStatus publishes submission progress. Updates arriving after a
// reset belong to a previous batch and are dropped.
func (s *Session) UpdateStatus(gen int, status models.ProcessingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.state != StateSubmitting {
		return
	}
	s.status = &status
}

// Generation identifies the current batch for progress updates
func (s *Session) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Reset manually returns the session to UPLOAD ("submit another batch")
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetIfCurrent(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.state != StateComplete {
		return
	}
	s.resetLocked()
}

// resetLocked clears parsed data, selections, and status. Callers hold the mutex.
func (s *Session) resetLocked() {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.generation++
	s.state = StateUpload
	s.entries = nil
	s.status = nil
	s.locationID = ""
	s.courseID = ""
	s.confirmed = false
}
