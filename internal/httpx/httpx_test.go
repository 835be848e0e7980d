package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDo_SetsDefaultHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept, gotKeep string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotKeep = r.Header.Get("X-Keep")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := New(2 * time.Second)
	c.Headers = map[string]string{"Accept": "text/csv", "X-Keep": "default"}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("X-Keep", "caller")

	res, err := c.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "goldforecast/1.0", gotUA)
	require.Equal(t, "text/csv", gotAccept)
	require.Equal(t, "caller", gotKeep)
}
