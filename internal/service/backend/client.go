package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/zhouzirui/pdf-qa/frontend/internal/config"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
)

// ErrInvalidResponse marks a 2xx reply whose body could not be decoded.
var ErrInvalidResponse = errors.New("invalid backend response")

// RemoteError is a non-2xx reply from the backend.
type RemoteError struct {
	Status int
	// Detail is the backend's "detail" field, empty when absent or unparseable.
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// Client talks to the PDF Q&A backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Upload sends the file as the multipart field "file" and returns the new session.
func (c *Client) Upload(ctx context.Context, file qa.File) (qa.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(file.Name)))
	header.Set("Content-Type", contentType(file))

	part, err := mw.CreatePart(header)
	if err != nil {
		return qa.UploadResult{}, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return qa.UploadResult{}, fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return qa.UploadResult{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return qa.UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result qa.UploadResult
	if err := c.do(req, &result); err != nil {
		return qa.UploadResult{}, err
	}

	log.Printf("[backend] uploaded %s, session=%s", result.Filename, result.SessionID)
	return result, nil
}

// Ask submits a question against an existing session.
func (c *Client) Ask(ctx context.Context, ask qa.AskRequest) (qa.Answer, error) {
	payload, err := json.Marshal(ask)
	if err != nil {
		return qa.Answer{}, fmt.Errorf("encode ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ask", bytes.NewReader(payload))
	if err != nil {
		return qa.Answer{}, fmt.Errorf("build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var answer qa.Answer
	if err := c.do(req, &answer); err != nil {
		return qa.Answer{}, err
	}

	log.Printf("[backend] answered session=%s, persona=%s, length=%d", ask.SessionID, ask.Persona, len(answer.Answer))
	return answer, nil
}

// Health returns the backend's status message.
func (c *Client) Health(ctx context.Context) (qa.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return qa.Status{}, fmt.Errorf("build health request: %w", err)
	}

	var status qa.Status
	if err := c.do(req, &status); err != nil {
		return qa.Status{}, err
	}
	return status, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote := &RemoteError{Status: resp.StatusCode}
		var body qa.ErrorBody
		if json.Unmarshal(raw, &body) == nil {
			remote.Detail = body.Detail
		}
		return remote
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func contentType(file qa.File) string {
	if file.ContentType != "" && file.ContentType != "application/octet-stream" {
		return file.ContentType
	}
	if strings.EqualFold(filepath.Ext(file.Name), ".pdf") {
		return "application/pdf"
	}
	return http.DetectContentType(file.Data)
}
