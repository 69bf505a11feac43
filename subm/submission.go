package subm

import (
	"context"
	"iter"
	"time"
)

// ImageHint is stored with every submission for downstream image tooling.
const ImageHint = "form complete"

// Subm is a persisted completion confirmation.
type Subm struct {
	ID             string    `json:"id"`
	ContractorName string    `json:"contractorName"`
	CompanyName    string    `json:"companyName"`
	ScreenshotUrl  string    `json:"screenshotUrl"`
	ImageHint      string    `json:"imageHint"`
	SubmittedAt    time.Time `json:"submittedAt"` // zero if the store held no valid timestamp
}

// DisplayTime returns the submission time to show a reviewer.
// Records without a usable timestamp are shown as submitted at now.
func (s Subm) DisplayTime(now time.Time) time.Time {
	if s.SubmittedAt.IsZero() {
		return now
	}
	return s.SubmittedAt
}

// NewSubm holds the fields the processor writes. ID and SubmittedAt are
// assigned by the store.
type NewSubm struct {
	ContractorName string
	CompanyName    string
	ScreenshotUrl  string
	ImageHint      string
}

// SubmStore is the document store holding submissions.
type SubmStore interface {
	// InsertSubm persists a new record and returns it with its store-assigned
	// id and timestamp.
	InsertSubm(ctx context.Context, s NewSubm) (Subm, error)
	// QuerySubms yields all submissions newest first. Every range over the
	// returned sequence issues a fresh query. A failed query yields a single
	// non-nil error and stops.
	QuerySubms(ctx context.Context) iter.Seq2[Subm, error]
}

// BlobStore holds uploaded screenshot bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, content []byte, mediaType string) error
	// URL returns a durable retrieval address for an uploaded key.
	URL(key string) string
}

// ListInvalidator drops any cached view of the submission listing.
type ListInvalidator interface {
	Invalidate(ctx context.Context) error
}
