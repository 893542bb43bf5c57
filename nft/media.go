package nft

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

// MediaFetchTimeout bounds the HTTP GET issued against a resolved media URL.
const MediaFetchTimeout = 20 * time.Second

// S3PutObjectAPI is the slice of the S3 client this package depends on.
// *s3.S3 satisfies it; tests substitute a stub.
type S3PutObjectAPI interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// ObjectStore uploads media bytes under a key derived from the media URL and reports
// where the object can subsequently be reached. It is backed by S3 in this
// implementation.
type ObjectStore struct {
	Client S3PutObjectAPI
	Bucket string
}

// Mirror fetches a media URL, derives a deterministic storage key and
// uploads the bytes to the configured object store. On success it returns
// the mirror URL, the resolved fetch URL and a short backend tag ("s3").
//
// url is the URL exactly as it appeared in the metadata document
// (pre-resolution); the storage key is derived from its sha256 hash, not
// the resolved URL's, so that re-mirroring the same logical reference
// always lands on the same key regardless of gateway choice.
func Mirror(ctx context.Context, httpClient *http.Client, store *ObjectStore, url string) (cachedURL, resolvedURL, backend string, err error) {
	if store == nil {
		return "", "", "", ErrObjectStoreNotConfigured
	}

	resolved := Resolve(url)

	fetchCtx, cancel := context.WithTimeout(ctx, MediaFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, resolved, nil)
	if err != nil {
		return "", "", "", fmt.Errorf("nft: build media request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	key := storageKey(url, resolved)
	_, err = store.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(store.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return "", "", "", fmt.Errorf("nft: s3 put object: %w", err)
	}

	mirrorURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", store.Bucket, key)
	return mirrorURL, resolved, "s3", nil
}

// storageKey derives the deterministic object key for a media reference:
// hex(sha256(preResolutionURL)) + "." + ext, where ext is the substring
// after the final '.' in the resolved URL, falling back to "bin" when that
// suffix is missing, empty, or contains a path separator.
func storageKey(originalURL, resolvedURL string) string {
	sum := sha256.Sum256([]byte(originalURL))
	return hex.EncodeToString(sum[:]) + "." + extensionOf(resolvedURL)
}

func extensionOf(resolvedURL string) string {
	idx := strings.LastIndex(resolvedURL, ".")
	if idx == -1 || idx == len(resolvedURL)-1 {
		return "bin"
	}
	ext := resolvedURL[idx+1:]
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return "bin"
	}
	return ext
}
