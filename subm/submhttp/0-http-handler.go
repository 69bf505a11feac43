package submhttp

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/screensync/backend/listcache"
	"github.com/screensync/backend/subm"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxMemory    = 32 << 20
	defaultMaxBodyBytes = 64 << 20
	defaultListTimeout  = 30 * time.Second
)

type BatchProcessor interface {
	Process(ctx context.Context, form subm.Form) subm.Result
}

type SubmLister interface {
	List(ctx context.Context) ([]subm.Subm, error)
}

type SubmHttpHandler struct {
	processor BatchProcessor
	lister    SubmLister
	cache     listcache.Cache
	sfGroup   singleflight.Group // one store query per burst of cache misses

	// blobs is set when screenshots live in process memory and must be
	// served by this server.
	blobs *subm.InMemBlobStore

	maxMemory    int64
	maxBodyBytes int64
	listTimeout  time.Duration
	now          func() time.Time
}

func NewSubmHttpHandler(
	processor BatchProcessor,
	lister SubmLister,
	cache listcache.Cache,
) *SubmHttpHandler {
	return &SubmHttpHandler{
		processor: processor,
		lister:    lister,
		cache:     cache,
		maxMemory:    defaultMaxMemory,
		maxBodyBytes: defaultMaxBodyBytes,
		listTimeout:  defaultListTimeout,
		now:          time.Now,
	}
}

// ServeBlobs exposes an in-memory blob store under /blobs.
func (h *SubmHttpHandler) ServeBlobs(blobs *subm.InMemBlobStore) {
	h.blobs = blobs
}

// SetMaxMemory bounds the bytes of a multipart form kept in memory. File
// parts beyond it spill to temporary files; see SetMaxBodyBytes for the
// bound on the whole request.
func (h *SubmHttpHandler) SetMaxMemory(n int64) {
	if n > 0 {
		h.maxMemory = n
	}
}

// SetMaxBodyBytes bounds the size of a submission request body. Larger
// bodies are rejected with 413 before anything is stored.
func (h *SubmHttpHandler) SetMaxBodyBytes(n int64) {
	if n > 0 {
		h.maxBodyBytes = n
	}
}

// SetListTimeout bounds the shared store query behind a list cache miss.
func (h *SubmHttpHandler) SetListTimeout(d time.Duration) {
	if d > 0 {
		h.listTimeout = d
	}
}

func (h *SubmHttpHandler) RegisterRoutes(r chi.Router) {
	r.Post("/submissions", h.PostSubms)
	r.Get("/submissions", h.GetSubmList)
	if h.blobs != nil {
		r.Get("/blobs/*", h.GetBlob)
	}
}
