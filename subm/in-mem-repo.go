package subm

import (
	"context"
	"iter"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemSubmStore keeps submissions in process memory.
type InMemSubmStore struct {
	lock  sync.Mutex
	subms []Subm
	last  time.Time

	now func() time.Time
}

func NewInMemSubmStore() *InMemSubmStore {
	return &InMemSubmStore{
		subms: make([]Subm, 0),
		now:   time.Now,
	}
}

// InsertSubm assigns a uuid and a timestamp that never goes backwards.
func (m *InMemSubmStore) InsertSubm(ctx context.Context, s NewSubm) (Subm, error) {
	if err := ctx.Err(); err != nil {
		return Subm{}, err
	}
	m.lock.Lock()
	defer m.lock.Unlock()

	ts := m.now().UTC()
	if ts.Before(m.last) {
		ts = m.last
	}
	m.last = ts

	entity := Subm{
		ID:             uuid.NewString(),
		ContractorName: s.ContractorName,
		CompanyName:    s.CompanyName,
		ScreenshotUrl:  s.ScreenshotUrl,
		ImageHint:      s.ImageHint,
		SubmittedAt:    ts,
	}
	m.subms = append(m.subms, entity)
	return entity, nil
}

// QuerySubms snapshots the store on every iteration. Equal timestamps are
// returned most recently inserted first.
func (m *InMemSubmStore) QuerySubms(ctx context.Context) iter.Seq2[Subm, error] {
	return func(yield func(Subm, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(Subm{}, err)
			return
		}
		m.lock.Lock()
		snapshot := slices.Clone(m.subms)
		m.lock.Unlock()

		slices.Reverse(snapshot)
		slices.SortStableFunc(snapshot, func(a, b Subm) int {
			return b.SubmittedAt.Compare(a.SubmittedAt)
		})
		for _, s := range snapshot {
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (m *InMemSubmStore) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.subms)
}

// InMemBlobStore keeps uploaded blobs in process memory. URLs point at
// baseUrl, which the dev server serves through GetBlob.
type InMemBlobStore struct {
	lock    sync.Mutex
	blobs   map[string]memBlob
	baseUrl string
}

type memBlob struct {
	content   []byte
	mediaType string
}

func NewInMemBlobStore(baseUrl string) *InMemBlobStore {
	return &InMemBlobStore{
		blobs:   make(map[string]memBlob),
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
	}
}

func (m *InMemBlobStore) Put(ctx context.Context, key string, content []byte, mediaType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.blobs[key] = memBlob{content: slices.Clone(content), mediaType: mediaType}
	return nil
}

func (m *InMemBlobStore) URL(key string) string {
	return m.baseUrl + "/" + url.PathEscape(key)
}

// GetBlob returns the content and media type stored under key.
func (m *InMemBlobStore) GetBlob(key string) ([]byte, string, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	b, ok := m.blobs[key]
	return b.content, b.mediaType, ok
}

func (m *InMemBlobStore) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.blobs)
}
