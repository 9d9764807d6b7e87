package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cosmelab/labgrid/internal/grid"
)

// ErrAlreadySubmitted is returned by Session.Submit once a submission succeeded.
var ErrAlreadySubmitted = errors.New("availability already submitted")

// Submitter delivers a submission to the remote endpoint.
type Submitter interface {
	SubmitAvailability(ctx context.Context, s *Submission) error
}

// Receipt records a submission made from this machine.
type Receipt struct {
	ID          int64
	Email       string
	Name        string
	Cells       []grid.Cell
	SubmittedAt time.Time
}

// ReceiptStore persists local submission receipts.
type ReceiptStore interface {
	SaveReceipt(ctx context.Context, r *Receipt) error
	LatestReceipt(ctx context.Context, email string) (*Receipt, error)
}

// Result describes a successful Submit.
type Result struct {
	Submission *Submission
	// Previous is the earlier receipt for the same email, if any. A
	// resubmission is allowed; callers show it as a warning.
	Previous *Receipt
}

// Session holds one poll run. After a successful Submit the session is
// locked and further submits are refused.
type Session struct {
	validator Validator
	submitter Submitter
	receipts  ReceiptStore
	now       func() time.Time
	locked    bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithReceipts enables local receipts.
func WithReceipts(store ReceiptStore) SessionOption {
	return func(s *Session) { s.receipts = store }
}

// NewSession creates a session that submits through submitter.
func NewSession(v Validator, submitter Submitter, opts ...SessionOption) *Session {
	s := &Session{
		validator: v,
		submitter: submitter,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locked reports whether the session already submitted successfully.
func (s *Session) Locked() bool {
	return s.locked
}

// Submit validates, builds and sends the submission. On failure the
// session stays unlocked and the selection is untouched so the student
// can retry.
func (s *Session) Submit(ctx context.Context, name, email string, sel *grid.Selection) (*Result, error) {
	if s.locked {
		return nil, ErrAlreadySubmitted
	}

	sub, err := s.validator.Build(name, email, sel, s.now())
	if err != nil {
		return nil, err
	}

	var previous *Receipt
	if s.receipts != nil {
		previous, err = s.receipts.LatestReceipt(ctx, sub.StudentEmail)
		if err != nil {
			return nil, fmt.Errorf("checking previous submission: %w", err)
		}
	}

	if err := s.submitter.SubmitAvailability(ctx, sub); err != nil {
		return nil, fmt.Errorf("submitting availability: %w", err)
	}
	s.locked = true

	if s.receipts != nil {
		receipt := &Receipt{
			Email:       sub.StudentEmail,
			Name:        sub.StudentName,
			Cells:       sub.Cells(),
			SubmittedAt: s.now(),
		}
		if err := s.receipts.SaveReceipt(ctx, receipt); err != nil {
			// The remote submission already succeeded; report but stay locked.
			return &Result{Submission: sub, Previous: previous}, fmt.Errorf("saving receipt: %w", err)
		}
	}

	return &Result{Submission: sub, Previous: previous}, nil
}
