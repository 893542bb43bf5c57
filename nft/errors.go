package nft

import "errors"

// Sentinel errors reported by the pipeline stages. Callers distinguish them
// with errors.Is; the worker logs all of them and continues (see §7 of the
// ingestion design this package implements).
var (
	// ErrMetadataURIAbsent is logged by the worker when a job carries no
	// metadata_uri - the contract's URI view call failed or was never made.
	ErrMetadataURIAbsent = errors.New("nft: metadata uri absent")

	// ErrFetchFailed covers transport errors and non-200 responses when
	// fetching a metadata document or a media blob.
	ErrFetchFailed = errors.New("nft: fetch failed")

	// ErrNotJSON is returned when a 200 response body does not parse as JSON.
	ErrNotJSON = errors.New("nft: response body is not valid json")

	// ErrObjectStoreNotConfigured is returned by the media mirror when no
	// object-store client/bucket is configured. There is no local-filesystem
	// fallback.
	ErrObjectStoreNotConfigured = errors.New("nft: object store not configured")
)
