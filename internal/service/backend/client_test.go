package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/pdf-qa/frontend/internal/config"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/backend"
)

func newClient(t *testing.T, h http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return backend.NewClient(config.BackendConfig{BaseURL: srv.URL + "/"})
}

func TestUploadSendsMultipartPDF(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "doc.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"session_id":"abc","filename":"doc.pdf","message":"File processed successfully."}`)
	})

	result, err := client.Upload(context.Background(), qa.File{Name: "/tmp/doc.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, "abc", result.SessionID)
	assert.Equal(t, "doc.pdf", result.Filename)
	assert.Equal(t, "File processed successfully.", result.Message)
}

func TestUploadFailureCarriesDetail(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"bad pdf"}`)
	})

	_, err := client.Upload(context.Background(), qa.File{Name: "doc.pdf", Data: []byte("x")})

	var remote *backend.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadRequest, remote.Status)
	assert.Equal(t, "bad pdf", remote.Detail)
	assert.Equal(t, "bad pdf", err.Error())
}

func TestFailureWithUnparseableBodyHasEmptyDetail(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>upstream down</html>")
	})

	_, err := client.Ask(context.Background(), qa.AskRequest{SessionID: "abc", Question: "q", Persona: "formal"})

	var remote *backend.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadGateway, remote.Status)
	assert.Empty(t, remote.Detail)
}

func TestAskSendsJSONBody(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{
			"session_id": "abc",
			"question":   "What is the conclusion?",
			"persona":    "skeptical",
		}, body)

		_, _ = io.WriteString(w, `{"answer":"The conclusion is X."}`)
	})

	answer, err := client.Ask(context.Background(), qa.AskRequest{
		SessionID: "abc",
		Question:  "What is the conclusion?",
		Persona:   "skeptical",
	})
	require.NoError(t, err)
	assert.Equal(t, "The conclusion is X.", answer.Answer)
}

func TestSuccessWithInvalidBody(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	})

	_, err := client.Ask(context.Background(), qa.AskRequest{SessionID: "abc", Question: "q", Persona: "formal"})
	assert.ErrorIs(t, err, backend.ErrInvalidResponse)
}

func TestHealth(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = io.WriteString(w, `{"message":"PDF Q&A Backend is running"}`)
	})

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PDF Q&A Backend is running", status.Message)
}

func TestTransportFailureIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := backend.NewClient(config.BackendConfig{BaseURL: url})
	_, err := client.Health(context.Background())
	require.Error(t, err)

	var remote *backend.RemoteError
	assert.False(t, errors.As(err, &remote))
}
