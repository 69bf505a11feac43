package submhttp

import (
	"context"
	"net/http"
	"time"

	"github.com/screensync/backend/httpjson"
	"github.com/screensync/backend/logger"
	"github.com/screensync/backend/srvcerror"
	"github.com/screensync/backend/subm"
)

const submListSfKey = "subm_list"

type SubmListEntry struct {
	ID             string    `json:"id"`
	ContractorName string    `json:"contractorName"`
	CompanyName    string    `json:"companyName"`
	ScreenshotUrl  string    `json:"screenshotUrl"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

func (h *SubmHttpHandler) GetSubmList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	subms, found := h.cache.Get(ctx)
	if !found {
		// detached: a caller that leaves must not fail the others sharing
		// this query
		ch := h.sfGroup.DoChan(submListSfKey, func() (interface{}, error) {
			qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.listTimeout)
			defer cancel()

			subms, err := h.lister.List(qctx)
			if err != nil {
				return nil, err
			}
			h.cache.Set(qctx, subms)
			return subms, nil
		})

		select {
		case <-ctx.Done():
			log.Debug("client left while waiting for submission list", "error", ctx.Err())
			return
		case res := <-ch:
			if res.Err != nil {
				httpjson.HandleError(log, w, srvcerror.ErrStoreUnavailable(res.Err))
				return
			}
			if res.Shared {
				log.Debug("shared submission list query")
			}
			subms = res.Val.([]subm.Subm)
		}
	}

	httpjson.WriteSuccessJson(w, mapSubmList(subms, h.now()))
}

// mapSubmList normalizes timestamps for display: records without a
// usable submittedAt are shown as submitted now.
func mapSubmList(subms []subm.Subm, now time.Time) []SubmListEntry {
	entries := make([]SubmListEntry, len(subms))
	for i, s := range subms {
		entries[i] = SubmListEntry{
			ID:             s.ID,
			ContractorName: s.ContractorName,
			CompanyName:    s.CompanyName,
			ScreenshotUrl:  s.ScreenshotUrl,
			SubmittedAt:    s.DisplayTime(now).UTC(),
		}
	}
	return entries
}
