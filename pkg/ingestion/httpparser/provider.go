// Package httpparser talks to the ingestion parser over HTTP.
package httpparser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"qbank-admin/pkg/ingestion"
	"qbank-admin/pkg/staging"
)

type Provider struct {
	BaseURL string
	Client  *http.Client
}

var _ ingestion.Parser = &Provider{}

func NewProvider(baseURL string) *Provider {
	return &Provider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (p *Provider) ParseQuestions(ctx context.Context, doc ingestion.Document, opts ingestion.QuestionOptions) (*ingestion.ParsedQuestions, error) {
	fields := map[string]string{}
	if len(opts.Labels) > 0 {
		fields["labels"] = strings.Join(opts.Labels, ",")
	}

	var out ingestion.ParsedQuestions
	if err := p.post(ctx, "/parse/questions", doc, fields, &out); err != nil {
		return nil, err
	}
	if err := ingestion.CheckQuestions(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Provider) ParseAnswers(ctx context.Context, doc ingestion.Document) (*ingestion.ParsedAnswers, error) {
	var out ingestion.ParsedAnswers
	if err := p.post(ctx, "/parse/answers", doc, nil, &out); err != nil {
		return nil, err
	}
	if err := ingestion.CheckAnswers(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Provider) post(ctx context.Context, path string, doc ingestion.Document, fields map[string]string, out any) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", doc.Name)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.Client.Do(req)
	if err != nil {
		return &staging.RemoteError{Kind: staging.ErrTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &staging.RemoteError{Kind: staging.ErrTransport, Status: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusBadRequest:
		return &staging.RemoteError{Kind: staging.ErrParse, Status: resp.StatusCode, Message: errorMessage(bodyBytes)}
	default:
		return &staging.RemoteError{Kind: staging.ErrTransport, Status: resp.StatusCode, Message: errorMessage(bodyBytes)}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &staging.RemoteError{Kind: staging.ErrParse, Status: resp.StatusCode, Message: "unmarshal response: " + err.Error()}
	}
	return nil
}

func errorMessage(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return "empty response"
}
