package remote_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"goldforecast/internal/series"
	"goldforecast/internal/source"
	"goldforecast/internal/source/remote"
)

const csvBody = "Date,Price\n2020-01,1560.67\n2020-02,1598.09\n2020-03,1577.18\n"

func response(status int, body io.Reader, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(body), Header: header}
}

func TestNew_RejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := remote.New("ftp://example.com/gold.csv")
	require.Error(t, err)

	src, err := remote.New("https://example.com/gold.csv")
	require.NoError(t, err)
	require.Equal(t, "http:https://example.com/gold.csv", src.Name())
}

func TestLoad_PlainCSV(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the request carries the configured headers
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "secret", req.Header.Get("X-Api-Key"))
			require.Contains(t, req.Header.Get("Accept"), "text/csv")
			return response(http.StatusOK, strings.NewReader(csvBody), nil), nil
		}).
		Times(1)

	src, err := remote.New("https://example.com/gold.csv",
		remote.WithHTTPClient(httpClient),
		remote.WithHeader(http.Header{"X-Api-Key": []string{"secret"}}),
	)
	require.NoError(t, err)

	// Act
	got, err := src.Load(t.Context())

	// Assert
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	require.InDelta(t, 1577.18, got.Last().Price, 1e-9)
}

func TestLoad_GzipBody(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(response(http.StatusOK, &buf, http.Header{"Content-Encoding": []string{"gzip"}}), nil).
		Times(1)

	src, err := remote.New("https://example.com/gold", remote.WithHTTPClient(httpClient))
	require.NoError(t, err)

	got, err := src.Load(t.Context())
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
}

func TestLoad_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		res         *http.Response
		err         error
		opts        []remote.Option
		unavailable bool
		target      error
	}{
		{name: "transport error", err: errors.New("dial tcp: refused"), unavailable: true},
		{name: "bad status", res: response(http.StatusBadGateway, strings.NewReader("upstream down"), nil), unavailable: true},
		{name: "too large", res: response(http.StatusOK, strings.NewReader(csvBody), nil), opts: []remote.Option{remote.WithMaxBytes(10)}, unavailable: true},
		{name: "malformed csv", res: response(http.StatusOK, strings.NewReader("Foo,Bar\n1,2\n"), nil), target: series.ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).Return(tt.res, tt.err).Times(1)

			src, err := remote.New("https://example.com/gold.csv", append(tt.opts, remote.WithHTTPClient(httpClient))...)
			require.NoError(t, err)

			_, err = src.Load(t.Context())
			require.Error(t, err)
			if tt.unavailable {
				require.ErrorIs(t, err, source.ErrUnavailable)
			} else {
				require.NotErrorIs(t, err, source.ErrUnavailable)
			}
			if tt.target != nil {
				require.ErrorIs(t, err, tt.target)
			}
		})
	}
}
