package subm

import (
	"context"
	"iter"
)

// Lister reads submissions newest first. Ordering between submissions with
// equal timestamps is whatever the store returns.
type Lister struct {
	Subms SubmStore
}

// Query returns a lazy sequence over all submissions. The sequence can be
// ranged over again to re-run the query.
func (l *Lister) Query(ctx context.Context) iter.Seq2[Subm, error] {
	return l.Subms.QuerySubms(ctx)
}

// List runs the query to completion.
func (l *Lister) List(ctx context.Context) ([]Subm, error) {
	subms := make([]Subm, 0)
	for s, err := range l.Query(ctx) {
		if err != nil {
			return nil, err
		}
		subms = append(subms, s)
	}
	return subms, nil
}

type ListState int

const (
	ListLoading ListState = iota
	ListFailed
	ListLoaded
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListFailed:
		return "failed"
	case ListLoaded:
		return "loaded"
	}
	return "unknown"
}

// ListView is what a review page shows for one listing read.
type ListView struct {
	State ListState
	Err   error
	Subms []Subm
}

func LoadingView() ListView {
	return ListView{State: ListLoading}
}

// ViewOf turns the outcome of a listing read into a view.
func ViewOf(subms []Subm, err error) ListView {
	if err != nil {
		return ListView{State: ListFailed, Err: err}
	}
	return ListView{State: ListLoaded, Subms: subms}
}

// ErrMsg is the human-readable failure description, "" unless failed.
func (v ListView) ErrMsg() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}
