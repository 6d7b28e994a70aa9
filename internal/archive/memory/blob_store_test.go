package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObject_StoresCopy(t *testing.T) {
	t.Parallel()
	store := New()

	payload := []byte("<html>page</html>")
	uri, err := store.PutObject(context.Background(), "run-1/page.html", "text/html", payload)
	require.NoError(t, err)
	require.Equal(t, "memory://run-1/page.html", uri)

	payload[0] = 'X'

	data, ok := store.Get("run-1/page.html")
	require.True(t, ok)
	require.Equal(t, "<html>page</html>", string(data))
	require.Equal(t, 1, store.Len())
}
