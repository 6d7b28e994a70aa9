// Package archiving decorates a fetcher with raw-page archival. Successful
// bodies are written to a blob store under a content-addressed path so reruns
// against the same pages can be replayed without refetching.
package archiving

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/litmetrics/journal-crawler/internal/journal"
)

const archiveContentType = "text/html; charset=utf-8"

// Fetcher wraps an inner fetcher and archives every OK response body.
type Fetcher struct {
	inner  journal.Fetcher
	blobs  journal.BlobStore
	hasher journal.Hasher
	prefix string
	logger *zap.Logger
}

// New constructs the decorator. prefix is prepended to every object path,
// typically "<configured prefix>/<run id>".
func New(inner journal.Fetcher, blobs journal.BlobStore, hasher journal.Hasher, prefix string, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		inner:  inner,
		blobs:  blobs,
		hasher: hasher,
		prefix: prefix,
		logger: logger,
	}
}

// Fetch delegates to the inner fetcher and archives the body when the fetch
// succeeded. Archive failures are logged, never propagated; losing a raw copy
// must not fail the crawl.
func (f *Fetcher) Fetch(ctx context.Context, request journal.FetchRequest) (journal.FetchResponse, error) {
	resp, err := f.inner.Fetch(ctx, request)
	if err != nil || !resp.OK || len(resp.Body) == 0 {
		return resp, err
	}

	digest, hashErr := f.hasher.Hash(resp.Body)
	if hashErr != nil {
		f.logger.Warn("hash page body", zap.String("url", resp.URL), zap.Error(hashErr))
		return resp, nil
	}
	path := fmt.Sprintf("%s/%s.html", f.prefix, digest)
	uri, putErr := f.blobs.PutObject(ctx, path, archiveContentType, resp.Body)
	if putErr != nil {
		f.logger.Warn("archive page body", zap.String("url", resp.URL), zap.Error(putErr))
		return resp, nil
	}
	f.logger.Debug("archived page", zap.String("url", resp.URL), zap.String("uri", uri))
	return resp, nil
}
