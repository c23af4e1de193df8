package rembg

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{Endpoint: "http://localhost:7000/api/remove"})

	assert.Equal(t, DefaultFormField, c.formField)
	assert.Equal(t, DefaultTimeout, c.client.Timeout)
}

func TestClient_Remove(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       Options
		handler    func(t *testing.T) http.HandlerFunc
		want       string
		wantErrMsg string
		wantStatus int
	}{
		{
			name: "uploads the image as multipart form",
			opts: Options{FormField: "image", APIKey: "secret"},
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, http.MethodPost, r.Method)
					assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

					file, header, err := r.FormFile("image")
					require.NoError(t, err)
					defer file.Close()
					assert.Equal(t, "photo.jpg", header.Filename)

					data, err := io.ReadAll(file)
					require.NoError(t, err)
					assert.Equal(t, "raw-bytes", string(data))

					w.Header().Set("Content-Type", "image/png")
					_, _ = w.Write([]byte("cutout"))
				}
			},
			want: "cutout",
		},
		{
			name: "no api key header when unset",
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Empty(t, r.Header.Get("X-Api-Key"))
					_, _, err := r.FormFile(DefaultFormField)
					assert.NoError(t, err)
					_, _ = w.Write([]byte("ok"))
				}
			},
			want: "ok",
		},
		{
			name: "json error body",
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(`{"error": "unsupported image"}`))
				}
			},
			wantErrMsg: "unsupported image",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "json:api error list",
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusUnprocessableEntity)
					_, _ = w.Write([]byte(`{"errors": [{"title": "Bad Request", "detail": "file is required"}]}`))
				}
			},
			wantErrMsg: "Bad Request: file is required",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "plain text error body",
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte("model crashed\n"))
				}
			},
			wantErrMsg: "model crashed",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "empty success body",
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
				}
			},
			wantErrMsg: "empty body",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler(t))
			defer server.Close()

			opts := tt.opts
			opts.Endpoint = server.URL
			got, err := NewClient(opts).Remove(context.Background(), []byte("raw-bytes"), "/some/dir/photo.jpg")

			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				if tt.wantStatus != 0 {
					var statusErr *StatusError
					require.ErrorAs(t, err, &statusErr)
					assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestClient_RemoveRespectsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(Options{Endpoint: server.URL}).Remove(ctx, []byte("raw"), "a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_RemoveUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	_, err := NewClient(Options{Endpoint: endpoint, Timeout: time.Second}).Remove(context.Background(), []byte("raw"), "a.png")
	assert.Error(t, err)
}

func TestClient_RemoveRejectsEmptyInput(t *testing.T) {
	_, err := NewClient(Options{Endpoint: "http://127.0.0.1:1"}).Remove(context.Background(), nil, "a.png")
	assert.Error(t, err)
}
