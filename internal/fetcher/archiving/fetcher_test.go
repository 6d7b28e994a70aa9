package archiving

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	memarchive "github.com/litmetrics/journal-crawler/internal/archive/memory"
	"github.com/litmetrics/journal-crawler/internal/hash/sha256"
	"github.com/litmetrics/journal-crawler/internal/journal"
)

type stubFetcher struct {
	resp journal.FetchResponse
	err  error
}

func (s *stubFetcher) Fetch(context.Context, journal.FetchRequest) (journal.FetchResponse, error) {
	return s.resp, s.err
}

func TestFetch_ArchivesOKResponses(t *testing.T) {
	t.Parallel()
	blobs := memarchive.New()
	hasher := sha256.New()
	inner := &stubFetcher{resp: journal.FetchResponse{
		URL:        "https://example.com/journal",
		StatusCode: 200,
		OK:         true,
		Body:       []byte("<html>ok</html>"),
	}}

	f := New(inner, blobs, hasher, "pages/run-1", nil)
	resp, err := f.Fetch(context.Background(), journal.FetchRequest{URL: "https://example.com/journal"})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, 1, blobs.Len())

	digest, err := hasher.Hash([]byte("<html>ok</html>"))
	require.NoError(t, err)
	stored, ok := blobs.Get("pages/run-1/" + digest + ".html")
	require.True(t, ok)
	require.Equal(t, "<html>ok</html>", string(stored))
}

func TestFetch_SkipsFailedResponses(t *testing.T) {
	t.Parallel()
	blobs := memarchive.New()
	inner := &stubFetcher{resp: journal.FetchResponse{StatusCode: 404, OK: false}}

	f := New(inner, blobs, sha256.New(), "pages/run-1", nil)
	_, err := f.Fetch(context.Background(), journal.FetchRequest{URL: "https://example.com/missing"})
	require.NoError(t, err)
	require.Equal(t, 0, blobs.Len())
}

type failingBlobs struct{}

func (failingBlobs) PutObject(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestFetch_ArchiveFailureDoesNotPropagate(t *testing.T) {
	t.Parallel()
	inner := &stubFetcher{resp: journal.FetchResponse{
		StatusCode: 200,
		OK:         true,
		Body:       []byte("<html>ok</html>"),
	}}

	f := New(inner, failingBlobs{}, sha256.New(), "pages/run-1", nil)
	resp, err := f.Fetch(context.Background(), journal.FetchRequest{URL: "https://example.com/journal"})
	require.NoError(t, err)
	require.True(t, resp.OK)
}
