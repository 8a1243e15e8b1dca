package inpaint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInpaintJob(t *testing.T) {
	var got jobRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"job_id":"job-7"}`))
	}))
	defer srv.Close()

	log, hook := test.NewNullLogger()
	c := NewClient(srv.URL, "tok", log)

	id, err := c.CreateInpaintJob(context.Background(), "remove the lamp", "https://cdn/a.png", "https://cdn/mask-a.png")
	require.NoError(t, err)
	assert.Equal(t, "job-7", id)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, jobRequest{Prompt: "remove the lamp", ImageURL: "https://cdn/a.png", MaskURL: "https://cdn/mask-a.png"}, got)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "job-7", hook.LastEntry().Data["job_id"])
}

func TestCreateInpaintJobErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"service error", http.StatusBadRequest, `{"error":"mask is empty"}`, "mask is empty"},
		{"bare status", http.StatusBadGateway, `oops`, "returned 502"},
		{"malformed", http.StatusOK, `not json`, "malformed"},
		{"no job id", http.StatusOK, `{}`, "no job_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			log, _ := test.NewNullLogger()
			_, err := NewClient(srv.URL, "", log).CreateInpaintJob(context.Background(), "p", "i", "m")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateInpaintJobNoEndpoint(t *testing.T) {
	_, err := NewClient("", "", nil).CreateInpaintJob(context.Background(), "p", "i", "m")
	assert.Error(t, err)
}
