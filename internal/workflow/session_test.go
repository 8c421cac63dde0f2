package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/cert-roster-api/internal/models"
)

func reviewEntries() []*models.RosterEntry {
	return []*models.RosterEntry{
		{RowIndex: 1, StudentName: "Jane", Match: &models.CourseMatch{CourseID: "c1", MatchType: models.MatchExact}},
		{RowIndex: 2, StudentName: "John", Match: &models.CourseMatch{CourseID: "c1", MatchType: models.MatchDefault}},
	}
}

func readySession(t *testing.T) *Session {
	t.Helper()
	s := NewSession("s1", 0)
	if err := s.LoadReview(reviewEntries()); err != nil {
		t.Fatalf("LoadReview: %v", err)
	}
	s.SetSelections("loc-1", "c1", true)
	return s
}

func TestSessionStartsInUpload(t *testing.T) {
	s := NewSession("s1", 0)
	if s.State() != StateUpload {
		t.Errorf("state = %s, want %s", s.State(), StateUpload)
	}
}

func TestLoadReviewRejectsEmptyData(t *testing.T) {
	s := NewSession("s1", 0)
	if err := s.LoadReview(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want %v", err, ErrNoData)
	}
	if s.State() != StateUpload {
		t.Errorf("empty data must keep the session in UPLOAD, got %s", s.State())
	}
}

func TestBeginSubmitRefusals(t *testing.T) {
	t.Run("not reviewing", func(t *testing.T) {
		s := NewSession("s1", 0)
		if err := s.BeginSubmit(); !errors.Is(err, ErrNotReviewing) {
			t.Errorf("err = %v, want %v", err, ErrNotReviewing)
		}
	})

	t.Run("unresolved mismatches reported before anything else", func(t *testing.T) {
		s := NewSession("s1", 0)
		entries := reviewEntries()
		entries[1].Match.MatchType = models.MatchMismatch
		if err := s.LoadReview(entries); err != nil {
			t.Fatalf("LoadReview: %v", err)
		}
		// No location and no confirmation either; the mismatch still wins.
		if err := s.BeginSubmit(); !errors.Is(err, ErrUnresolvedMismatches) {
			t.Errorf("err = %v, want %v", err, ErrUnresolvedMismatches)
		}
		if s.State() != StateReview {
			t.Errorf("refused submit must stay in REVIEW, got %s", s.State())
		}
	})

	t.Run("missing location", func(t *testing.T) {
		s := NewSession("s1", 0)
		if err := s.LoadReview(reviewEntries()); err != nil {
			t.Fatalf("LoadReview: %v", err)
		}
		s.SetSelections("", "c1", true)
		if err := s.BeginSubmit(); !errors.Is(err, ErrNoLocation) {
			t.Errorf("err = %v, want %v", err, ErrNoLocation)
		}
	})

	t.Run("unconfirmed checklist", func(t *testing.T) {
		s := NewSession("s1", 0)
		if err := s.LoadReview(reviewEntries()); err != nil {
			t.Fatalf("LoadReview: %v", err)
		}
		s.SetSelections("loc-1", "c1", false)
		if err := s.BeginSubmit(); !errors.Is(err, ErrUnconfirmed) {
			t.Errorf("err = %v, want %v", err, ErrUnconfirmed)
		}
	})
}

func TestBeginSubmitInitializesStatus(t *testing.T) {
	s := readySession(t)
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if s.State() != StateSubmitting {
		t.Errorf("state = %s, want %s", s.State(), StateSubmitting)
	}
	status := s.Status()
	if status == nil || status.Total != 2 || status.Processed != 0 {
		t.Errorf("status = %+v, want total 2, processed 0", status)
	}
}

func TestCompleteSubmit(t *testing.T) {
	s := readySession(t)
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}

	unfinished := &models.ProcessingStatus{Total: 2, Processed: 1}
	if err := s.CompleteSubmit(unfinished); err == nil {
		t.Error("unfinished status must not complete the submission")
	}

	done := &models.ProcessingStatus{Total: 2, Processed: 2, Successful: 2}
	if err := s.CompleteSubmit(done); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}
	if s.State() != StateComplete {
		t.Errorf("state = %s, want %s", s.State(), StateComplete)
	}
}

func TestFailSubmitReturnsToReview(t *testing.T) {
	s := readySession(t)
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}

	s.FailSubmit()

	if s.State() != StateReview {
		t.Errorf("state = %s, want %s", s.State(), StateReview)
	}
	if len(s.Entries()) != 2 {
		t.Error("review data must survive a failed submission")
	}
	if s.Status() != nil {
		t.Error("stale progress must be dropped after a failed submission")
	}
}

func TestUpdateStatusDropsStaleGenerations(t *testing.T) {
	s := readySession(t)
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	gen := s.Generation()

	s.UpdateStatus(gen, models.ProcessingStatus{Total: 2, Processed: 1, Successful: 1})
	if status := s.Status(); status == nil || status.Processed != 1 {
		t.Fatalf("current-generation update must apply, got %+v", status)
	}

	s.Reset()
	s.UpdateStatus(gen, models.ProcessingStatus{Total: 2, Processed: 2, Successful: 2})
	if s.Status() != nil {
		t.Error("update from a previous batch must be dropped after reset")
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := readySession(t)
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if err := s.CompleteSubmit(&models.ProcessingStatus{Total: 2, Processed: 2, Successful: 2}); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}

	s.Reset()

	if s.State() != StateUpload {
		t.Errorf("state = %s, want %s", s.State(), StateUpload)
	}
	if s.Entries() != nil || s.Status() != nil || s.LocationID() != "" {
		t.Error("reset must clear entries, status, and selections")
	}
}

func TestAutomaticResetAfterComplete(t *testing.T) {
	s := NewSession("s1", 20*time.Millisecond)
	if err := s.LoadReview(reviewEntries()); err != nil {
		t.Fatalf("LoadReview: %v", err)
	}
	s.SetSelections("loc-1", "c1", true)
	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if err := s.CompleteSubmit(&models.ProcessingStatus{Total: 2, Processed: 2, Successful: 2}); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}

	deadline := time.After(time.Second)
	for s.State() != StateUpload {
		select {
		case <-deadline:
			t.Fatal("session did not reset automatically after completion")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
