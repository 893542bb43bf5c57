package nft

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// MetadataFetchTimeout bounds the HTTP GET issued against a resolved
// metadata URI.
const MetadataFetchTimeout = 10 * time.Second

// Worker is the Metadata Worker: it consumes MintJobs and orchestrates the
// URI Resolver, Metadata Normalizer, Media Mirror and Persistence Gateway
// against each one. It holds no per-job state between calls to Process.
type Worker struct {
	HTTPClient  *http.Client
	Store       Store
	ObjectStore *ObjectStore
}

// NewWorker builds a Worker with the given shared, concurrency-safe
// collaborators. httpClient, store and objectStore are each held for the
// lifetime of the process and reused across jobs.
func NewWorker(httpClient *http.Client, store Store, objectStore *ObjectStore) *Worker {
	return &Worker{HTTPClient: httpClient, Store: store, ObjectStore: objectStore}
}

// HandleJob adapts Process to the bus.JobHandler signature. Process already
// logs every failure internally and never leaves a job partially retryable
// through an error return, so HandleJob always reports success to the
// consumer loop - a redelivery is handled the same way as a first delivery.
func (w *Worker) HandleJob(ctx context.Context, job MintJob) error {
	w.Process(ctx, job)
	return nil
}

// Process runs one job through RECEIVED → RESOLVED → NORMALIZED →
// PERSISTED_META → MIRRORED_MEDIA* → DONE. Every stage failure is logged
// and, per §7 of the ingestion design, non-fatal to the job's remaining
// stages except where a prior stage's output is a strict prerequisite
// (resolving metadata, parsing it) - those do end the job early.
func (w *Worker) Process(ctx context.Context, job MintJob) {
	logCtx := []interface{}{"contract", job.ContractAddress, "tokenID", job.TokenID, "chain", job.Chain}

	if job.MetadataURI == nil {
		log.Warn("metadata worker: job has no metadata uri", append(logCtx, "err", ErrMetadataURIAbsent)...)
		return
	}

	raw, err := w.fetchMetadata(ctx, *job.MetadataURI)
	if err != nil {
		log.Warn("metadata worker: metadata fetch failed", append(logCtx, "err", err)...)
		return
	}

	meta, err := Normalize(raw)
	if err != nil {
		log.Warn("metadata worker: metadata parse failed", append(logCtx, "err", err)...)
		return
	}

	row := NftMetadataRow{
		ContractAddress: job.ContractAddress,
		TokenID:         job.TokenID,
		Chain:           job.Chain,
		Name:            meta.Name,
		Description:     meta.Description,
		Attributes:      meta.Attributes,
		RawMetadata:     meta.Raw,
	}
	if err := w.Store.InsertMetadata(ctx, row); err != nil {
		log.Warn("metadata worker: metadata insert failed", append(logCtx, "err", err)...)
	}

	w.mirror(ctx, job, MediaImage, meta.Image, logCtx)
	w.mirror(ctx, job, MediaAnimation, meta.AnimationURL, logCtx)
}

func (w *Worker) fetchMetadata(ctx context.Context, uri string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, MetadataFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, Resolve(uri), nil)
	if err != nil {
		return nil, fmt.Errorf("nft: build metadata request: %w", err)
	}
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// mirror runs the media mirror and persistence for a single optional media
// URL. A nil url is not an error - the corresponding media type is simply
// absent from the document - so it returns immediately.
func (w *Worker) mirror(ctx context.Context, job MintJob, mediaType MediaType, url *string, logCtx []interface{}) {
	if url == nil {
		return
	}

	cached, _, backend, err := Mirror(ctx, w.HTTPClient, w.ObjectStore, *url)
	if err != nil {
		log.Warn("metadata worker: media mirror failed", append(logCtx, "mediaType", mediaType, "url", *url, "err", err)...)
		return
	}

	row := NftMediaRow{
		ContractAddress: job.ContractAddress,
		TokenID:         job.TokenID,
		MediaType:       mediaType,
		OriginalURL:     *url,
		CachedURL:       cached,
		StorageBackend:  backend,
	}
	if err := w.Store.InsertMedia(ctx, row); err != nil {
		log.Warn("metadata worker: media insert failed", append(logCtx, "mediaType", mediaType, "err", err)...)
	}
}
