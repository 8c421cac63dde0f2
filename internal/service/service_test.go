package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cert-roster-api/internal/config"
	"github.com/cert-roster-api/internal/mocks"
	"github.com/cert-roster-api/internal/models"
	"github.com/cert-roster-api/internal/repository"
	"github.com/cert-roster-api/internal/service"
	"github.com/rs/zerolog"
)

type env struct {
	services *service.Services
	courses  *mocks.MockCourseRepository
	certs    *mocks.MockCertificateRepository
	rosters  *mocks.MockRosterRepository
	batches  *mocks.MockEmailBatchRepository
	pub      *mocks.MockPublisher
}

func newEnv(cfg *config.Config) *env {
	courses := mocks.NewMockCourseRepository(models.Course{
		ID:               "std-16",
		Name:             "Standard First Aid & CPR-C",
		FirstAidLevel:    "Standard",
		CPRLevel:         "C",
		LengthHours:      16,
		ExpirationMonths: 36,
		Active:           true,
	})
	certs := mocks.NewMockCertificateRepository()
	rosters := mocks.NewMockRosterRepository()
	batches := mocks.NewMockEmailBatchRepository()
	pub := mocks.NewMockPublisher()

	repos := &repository.Repositories{
		Course:      courses,
		Location:    mocks.NewMockLocationRepository(),
		Certificate: certs,
		Roster:      rosters,
		EmailBatch:  batches,
	}

	return &env{
		services: service.NewServices(repos, pub, cfg, zerolog.Nop()),
		courses:  courses,
		certs:    certs,
		rosters:  rosters,
		batches:  batches,
		pub:      pub,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Roster: config.RosterConfig{
			SubmitChunkSize:   10,
			DateFallbackToday: true,
		},
		Email: config.EmailConfig{
			PollInterval: time.Millisecond,
			MaxPolls:     5,
		},
	}
}

func makeEntries(n int) []*models.RosterEntry {
	issue := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	entries := make([]*models.RosterEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, &models.RosterEntry{
			RowIndex:         i + 1,
			StudentName:      "Student",
			Email:            "student@example.com",
			Phone:            "(604) 555-0100",
			FirstAidLevel:    "Standard",
			CPRLevel:         "C",
			IssueDate:        issue,
			AssessmentStatus: models.AssessmentPass,
			Match: &models.CourseMatch{
				CourseID:         "std-16",
				MatchType:        models.MatchExact,
				ExpirationMonths: 36,
			},
		})
	}
	return entries
}

func TestSubmitCountsBlockedRowsAsFailed(t *testing.T) {
	e := newEnv(testConfig())

	entries := makeEntries(10)
	entries[3].Match.MatchType = models.MatchMismatch
	entries[7].Match.MatchType = models.MatchMismatch

	roster, status, err := e.services.Submission.Submit(context.Background(), &service.SubmitRequest{
		Name:       "March roster",
		Entries:    entries,
		LocationID: "loc-1",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if status.Total != 10 || status.Processed != 10 {
		t.Errorf("status = %+v, want total 10, processed 10", status)
	}
	if status.Successful != 8 || status.Failed != 2 {
		t.Errorf("status = %+v, want 8 successful, 2 failed", status)
	}
	if e.certs.CreateCalls != 8 {
		t.Errorf("certificate inserts = %d, want 8 (blocked rows must not be inserted)", e.certs.CreateCalls)
	}
	if roster.Status != models.RosterStatusCompleted {
		t.Errorf("roster status = %s, want %s", roster.Status, models.RosterStatusCompleted)
	}
	if roster.CompletedAt == nil {
		t.Error("completed roster must carry a completion time")
	}
}

func TestSubmitContinuesPastInsertFailures(t *testing.T) {
	e := newEnv(testConfig())
	e.certs.CreateFunc = func(ctx context.Context, cert *models.Certificate) error {
		if cert.RecipientName == "Broken" {
			return errors.New("unique constraint violated")
		}
		return nil
	}

	entries := makeEntries(5)
	entries[2].StudentName = "Broken"

	_, status, err := e.services.Submission.Submit(context.Background(), &service.SubmitRequest{
		Name:       "batch",
		Entries:    entries,
		LocationID: "loc-1",
	})
	if err != nil {
		t.Fatalf("one bad insert must not abort the batch: %v", err)
	}
	if status.Successful != 4 || status.Failed != 1 {
		t.Errorf("status = %+v, want 4 successful, 1 failed", status)
	}
	if len(status.Errors) != 1 || !strings.Contains(status.Errors[0], "Row 3") {
		t.Errorf("errors = %v, want one error naming row 3", status.Errors)
	}
}

func TestSubmitRosterCreateFailureIsFatal(t *testing.T) {
	e := newEnv(testConfig())
	e.rosters.CreateError = errors.New("db down")

	_, _, err := e.services.Submission.Submit(context.Background(), &service.SubmitRequest{
		Name:       "batch",
		Entries:    makeEntries(3),
		LocationID: "loc-1",
	})
	if err == nil {
		t.Fatal("roster create failure must abort the batch")
	}
	if e.certs.CreateCalls != 0 {
		t.Errorf("no certificate inserts should run, got %d", e.certs.CreateCalls)
	}
}

func TestSubmitDerivesExpiryFromCourse(t *testing.T) {
	e := newEnv(testConfig())

	entries := makeEntries(2)
	explicit := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	entries[1].ExpiryDate = &explicit

	roster, _, err := e.services.Submission.Submit(context.Background(), &service.SubmitRequest{
		Name:       "batch",
		Entries:    entries,
		LocationID: "loc-1",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	certs, err := e.certs.GetByRosterID(context.Background(), roster.ID)
	if err != nil {
		t.Fatalf("GetByRosterID: %v", err)
	}
	if len(certs) != 2 {
		t.Fatalf("got %d certificates, want 2", len(certs))
	}

	derived := time.Date(2027, time.March, 15, 0, 0, 0, 0, time.UTC)
	sawDerived, sawExplicit := false, false
	for _, cert := range certs {
		switch {
		case cert.ExpiryDate.Equal(derived):
			sawDerived = true
		case cert.ExpiryDate.Equal(explicit):
			sawExplicit = true
		}
	}
	if !sawDerived {
		t.Error("issue date + course expiration months must drive the default expiry")
	}
	if !sawExplicit {
		t.Error("an explicit spreadsheet expiry must win over the derived one")
	}
}

func TestSubmitReportsProgressPerChunk(t *testing.T) {
	cfg := testConfig()
	cfg.Roster.SubmitChunkSize = 3
	e := newEnv(cfg)

	var snapshots []models.ProcessingStatus
	_, _, err := e.services.Submission.Submit(context.Background(), &service.SubmitRequest{
		Name:       "batch",
		Entries:    makeEntries(7),
		LocationID: "loc-1",
		Progress: func(s models.ProcessingStatus) {
			snapshots = append(snapshots, s)
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(snapshots) != 3 {
		t.Fatalf("got %d progress snapshots, want 3 (chunks of 3+3+1)", len(snapshots))
	}
	want := []int{3, 6, 7}
	for i, s := range snapshots {
		if s.Processed != want[i] {
			t.Errorf("snapshot %d processed = %d, want %d", i, s.Processed, want[i])
		}
		if s.Processed > s.Total || s.Successful+s.Failed > s.Processed {
			t.Errorf("snapshot %d violates counter invariants: %+v", i, s)
		}
	}
}

func TestProcessUploadReviewCounts(t *testing.T) {
	e := newEnv(testConfig())

	csv := strings.Join([]string{
		"Student Name,Email,Phone,Company,City,Province,Postal Code,First Aid Level,CPR Level,Pass/Fail,Issue Date,Notes",
		"Jane Doe,jane@example.com,(604) 555-0100,Acme,Victoria,BC,V8V 1A1,Standard,C,PASS,2024-03-15,ok",
		",,,,,,,,,,,",
		"John Roe,not-an-email,(604) 555-0101,Acme,Victoria,BC,V8V 1A1,Standard,C,PASS,2024-03-15,ok",
	}, "\n")

	result, err := e.services.Roster.ProcessUpload(context.Background(), strings.NewReader(csv), "", "")
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	if result.TotalRows != 2 {
		t.Errorf("total rows = %d, want 2 (blank rows are not counted)", result.TotalRows)
	}
	if result.ValidRows != 1 || result.ErrorRows != 1 {
		t.Errorf("valid = %d, errors = %d, want 1 and 1", result.ValidRows, result.ErrorRows)
	}
	if len(result.Errors) == 0 || result.Errors[0].Field != "email" {
		t.Errorf("errors = %+v, want an email format error", result.Errors)
	}
}

func TestStartBatchPublishesToMailWorker(t *testing.T) {
	e := newEnv(testConfig())

	batch, err := e.services.Email.StartBatch(context.Background(), []string{"c1", "c2", "c3"}, "March emails")
	if err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	if batch.Status != models.EmailBatchPending || batch.TotalCertificates != 3 {
		t.Errorf("batch = %+v, want PENDING with 3 certificates", batch)
	}

	msgs := e.pub.Messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].BatchID != batch.ID || len(msgs[0].CertificateIDs) != 3 || msgs[0].IsRetry {
		t.Errorf("message = %+v, want the batch id with 3 certificate ids", msgs[0])
	}
}

func TestStartBatchRejectsEmptySelection(t *testing.T) {
	e := newEnv(testConfig())
	if _, err := e.services.Email.StartBatch(context.Background(), nil, "empty"); err == nil {
		t.Error("an empty certificate selection must be rejected")
	}
}

func TestStartBatchPublishFailureMarksBatchFailed(t *testing.T) {
	e := newEnv(testConfig())
	e.pub.PublishError = errors.New("broker unreachable")

	_, err := e.services.Email.StartBatch(context.Background(), []string{"c1"}, "doomed")
	if err == nil {
		t.Fatal("publish failure at start must be returned")
	}

	var failed *models.EmailBatch
	for _, b := range e.batches.Batches {
		failed = b
	}
	if failed == nil || failed.Status != models.EmailBatchFailed {
		t.Errorf("batch = %+v, want FAILED after publish error", failed)
	}
}

func TestPollUntilCompleted(t *testing.T) {
	e := newEnv(testConfig())
	e.batches.GetFunc = func(attempt int, id string) (*models.EmailBatch, error) {
		if attempt < 3 {
			return &models.EmailBatch{ID: id, Status: models.EmailBatchProcessing}, nil
		}
		return &models.EmailBatch{
			ID:                id,
			Status:            models.EmailBatchCompleted,
			TotalCertificates: 4,
			SuccessfulEmails:  4,
		}, nil
	}

	result, err := e.services.Email.Poll(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Outcome != service.DispatchSucceeded {
		t.Errorf("outcome = %s, want %s", result.Outcome, service.DispatchSucceeded)
	}
	if e.batches.GetCalls != 3 {
		t.Errorf("polled %d times, want 3", e.batches.GetCalls)
	}
}

func TestPollCeilingContinuesInBackground(t *testing.T) {
	e := newEnv(testConfig())
	e.batches.GetFunc = func(attempt int, id string) (*models.EmailBatch, error) {
		return &models.EmailBatch{ID: id, Status: models.EmailBatchProcessing}, nil
	}

	result, err := e.services.Email.Poll(context.Background(), "b1")
	if err != nil {
		t.Fatalf("reaching the poll ceiling is not an error: %v", err)
	}
	if result.Outcome != service.DispatchInBackground {
		t.Errorf("outcome = %s, want %s", result.Outcome, service.DispatchInBackground)
	}
	if e.batches.GetCalls != 5 {
		t.Errorf("polled %d times, want the configured ceiling of 5", e.batches.GetCalls)
	}
}

func TestPollTerminalOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		batch models.EmailBatch
		want  service.DispatchOutcome
	}{
		{
			name:  "completed with failures is partial",
			batch: models.EmailBatch{Status: models.EmailBatchCompleted, TotalCertificates: 4, SuccessfulEmails: 2, FailedEmails: 2},
			want:  service.DispatchPartial,
		},
		{
			name:  "failed batch",
			batch: models.EmailBatch{Status: models.EmailBatchFailed, ErrorMessage: "smtp down"},
			want:  service.DispatchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(testConfig())
			e.batches.GetFunc = func(attempt int, id string) (*models.EmailBatch, error) {
				b := tt.batch
				b.ID = id
				return &b, nil
			}

			result, err := e.services.Email.Poll(context.Background(), "b1")
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if result.Outcome != tt.want {
				t.Errorf("outcome = %s, want %s", result.Outcome, tt.want)
			}
		})
	}
}

func TestPollIgnoresTransientReadErrors(t *testing.T) {
	e := newEnv(testConfig())
	e.batches.GetFunc = func(attempt int, id string) (*models.EmailBatch, error) {
		if attempt == 1 {
			return nil, errors.New("connection reset")
		}
		return &models.EmailBatch{ID: id, Status: models.EmailBatchCompleted}, nil
	}

	result, err := e.services.Email.Poll(context.Background(), "b1")
	if err != nil {
		t.Fatalf("a transient poll error must be retried, got: %v", err)
	}
	if result.Outcome != service.DispatchSucceeded {
		t.Errorf("outcome = %s, want %s", result.Outcome, service.DispatchSucceeded)
	}
}

func TestPollStopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Email.PollInterval = 10 * time.Millisecond
	cfg.Email.MaxPolls = 1000
	e := newEnv(cfg)
	e.batches.GetFunc = func(attempt int, id string) (*models.EmailBatch, error) {
		return &models.EmailBatch{ID: id, Status: models.EmailBatchProcessing}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := e.services.Email.Poll(ctx, "b1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context deadline", err)
	}
}

func TestRetryCertificateSendsSingleRetryMessage(t *testing.T) {
	e := newEnv(testConfig())

	if err := e.services.Email.RetryCertificate(context.Background(), "b1", "cert-9"); err != nil {
		t.Fatalf("RetryCertificate: %v", err)
	}

	msgs := e.pub.Messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	msg := msgs[0]
	if !msg.IsRetry || msg.BatchID != "b1" || len(msg.CertificateIDs) != 1 || msg.CertificateIDs[0] != "cert-9" {
		t.Errorf("message = %+v, want a single-certificate retry for b1/cert-9", msg)
	}
}
