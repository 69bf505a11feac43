package subm

import (
	"context"
	"fmt"
	"time"

	"github.com/screensync/backend/logger"
)

const (
	MsgCompanyNameRequired = "Company name is required."
	MsgNoEntries           = "At least one submission is required."
	MsgNoValidEntries      = "No valid submissions were provided."
	MsgOneSubmitted        = "Confirmation submitted successfully."
	msgManySubmittedFmt    = "%d confirmations submitted successfully."
)

type Verdict string

const (
	VerdictComplete          Verdict = "complete"
	VerdictSkippedIncomplete Verdict = "skipped_incomplete"
)

// EntryVerdict records how one entry of a batch was handled.
type EntryVerdict struct {
	Index   int
	Verdict Verdict
	SubmID  string // set for complete entries
}

// Result is the outcome of processing a batch.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Verdicts lists handled entries in processing order. An entry whose
	// upload or insert failed has no verdict.
	Verdicts []EntryVerdict `json:"-"`
	// Err is the store or blob failure that aborted the batch, if any.
	Err error `json:"-"`
}

func (r Result) count(v Verdict) int {
	n := 0
	for _, ev := range r.Verdicts {
		if ev.Verdict == v {
			n++
		}
	}
	return n
}

// Created returns the number of submissions persisted by the batch.
func (r Result) Created() int { return r.count(VerdictComplete) }

// Skipped returns the number of incomplete entries that were ignored.
func (r Result) Skipped() int { return r.count(VerdictSkippedIncomplete) }

// Processor validates a submission batch, uploads each screenshot and
// records one submission per complete entry.
type Processor struct {
	Blobs BlobStore
	Subms SubmStore

	// Cache is invalidated after a successful batch. Optional.
	Cache ListInvalidator
	// BcastSubmCreated is called after each insert. Its errors are logged
	// and never fail the batch. Optional.
	BcastSubmCreated func(ctx context.Context, s Subm) error
	// Now defaults to time.Now.
	Now func() time.Time
}

// Process handles one batch. Entries are processed one at a time in index
// order. The first upload or insert error aborts the batch; submissions
// already written by it are kept.
func (p *Processor) Process(ctx context.Context, form Form) Result {
	log := logger.FromContext(ctx)

	companyName := form.CompanyName()
	if companyName == "" {
		return Result{Message: MsgCompanyNameRequired}
	}

	indices := form.EntryIndices()
	if len(indices) == 0 {
		return Result{Message: MsgNoEntries}
	}

	res := Result{Verdicts: make([]EntryVerdict, 0, len(indices))}
	for _, idx := range indices {
		entry := form.Entry(idx)
		if !isComplete(entry) {
			log.Debug("skipping incomplete entry", "index", idx)
			res.Verdicts = append(res.Verdicts, EntryVerdict{Index: idx, Verdict: VerdictSkippedIncomplete})
			continue
		}

		s, err := p.submitEntry(ctx, companyName, entry)
		if err != nil {
			// the store's own description goes back to the caller verbatim
			res.Message = err.Error()
			res.Err = err
			return res
		}
		res.Verdicts = append(res.Verdicts, EntryVerdict{Index: idx, Verdict: VerdictComplete, SubmID: s.ID})

		if p.BcastSubmCreated != nil {
			if err := p.BcastSubmCreated(ctx, s); err != nil {
				log.Warn("failed to broadcast created submission", "subm_id", s.ID, "error", err)
			}
		}
	}

	created := res.Created()
	if created == 0 {
		res.Message = MsgNoValidEntries
		return res
	}

	res.Success = true
	res.Message = successMessage(created)

	if p.Cache != nil {
		if err := p.Cache.Invalidate(ctx); err != nil {
			log.Warn("failed to invalidate submission list cache", "error", err)
		}
	}

	log.Info("processed submission batch",
		"company_name", companyName,
		"created", created,
		"skipped", res.Skipped())

	return res
}

func isComplete(e Entry) bool {
	return e.ContractorName != "" && e.HasScreenshot && e.Screenshot.Size > 0
}

func (p *Processor) submitEntry(ctx context.Context, companyName string, e Entry) (Subm, error) {
	log := logger.FromContext(ctx)

	key := ScreenshotKey(p.now(), e.Screenshot.Filename)
	err := p.Blobs.Put(ctx, key, e.Screenshot.Content, e.Screenshot.ContentType)
	if err != nil {
		log.Error("failed to upload screenshot", "index", e.Index, "key", key, "error", err)
		return Subm{}, err
	}

	s, err := p.Subms.InsertSubm(ctx, NewSubm{
		ContractorName: e.ContractorName,
		CompanyName:    companyName,
		ScreenshotUrl:  p.Blobs.URL(key),
		ImageHint:      ImageHint,
	})
	if err != nil {
		// the uploaded blob stays behind without a record
		log.Error("failed to store submission", "index", e.Index, "key", key, "error", err)
		return Subm{}, err
	}
	return s, nil
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// ScreenshotKey is the blob key of a screenshot uploaded at t.
// Two uploads of the same filename within one millisecond share a key.
func ScreenshotKey(t time.Time, filename string) string {
	return fmt.Sprintf("screenshots/%d-%s", t.UnixMilli(), filename)
}

func successMessage(created int) string {
	if created == 1 {
		return MsgOneSubmitted
	}
	return fmt.Sprintf(msgManySubmittedFmt, created)
}
