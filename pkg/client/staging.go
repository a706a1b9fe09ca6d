package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"qbank-admin/pkg/commit"
	"qbank-admin/pkg/staging"
)

// Upload is a document picked by the admin.
type Upload struct {
	Name string
	Data []byte
}

type QuestionPreviewOptions struct {
	SubjectID int64
	SaveCopy  bool
	Labels    []string
}

var (
	_ commit.QuestionCommitter = &Client{}
	_ commit.AnswerCommitter   = &Client{}
)

// PreviewQuestions uploads a question document and returns the staged session.
// File type and size are checked before anything is sent.
func (c *Client) PreviewQuestions(ctx context.Context, up Upload, opts QuestionPreviewOptions) (*staging.QuestionSession, error) {
	labels, err := staging.NormalizeLabels(opts.Labels)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{
		"subjectId": strconv.FormatInt(opts.SubjectID, 10),
		"saveCopy":  strconv.FormatBool(opts.SaveCopy),
	}
	if len(labels) > 0 {
		fields["labels"] = strings.Join(labels, ",")
	}

	var out staging.QuestionSession
	if err := c.postUpload(ctx, "/api/questions/preview", up, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PreviewAnswers(ctx context.Context, up Upload, subjectID int64) (*staging.AnswerSession, error) {
	fields := map[string]string{"subjectId": strconv.FormatInt(subjectID, 10)}
	var out staging.AnswerSession
	if err := c.postUpload(ctx, "/api/answers/preview", up, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchImage reads one staged image. A vanished session yields
// staging.ErrImageNotFound so the caller can draw a placeholder.
func (c *Client) FetchImage(ctx context.Context, sessionID string, index int) ([]byte, string, error) {
	path := fmt.Sprintf("/api/questions/image/%s/%d", url.PathEscape(sessionID), index)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &staging.RemoteError{Kind: staging.ErrTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, "", staging.ErrImageNotFound
	default:
		return nil, "", &staging.RemoteError{Kind: staging.ErrTransport, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &staging.RemoteError{Kind: staging.ErrTransport, Status: resp.StatusCode, Message: "read image: " + err.Error()}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) CommitQuestions(ctx context.Context, req staging.QuestionCommitRequest, saveCopy bool, onUpload commit.UploadFunc) (*staging.QuestionCommitResult, error) {
	path := "/api/questions/commit?saveCopy=" + strconv.FormatBool(saveCopy)
	var out staging.QuestionCommitResult
	if err := c.postJSON(ctx, path, req, onUpload, staging.ErrSessionExpired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CommitAnswers(ctx context.Context, req staging.AnswerCommitRequest, onUpload commit.UploadFunc) (*staging.AnswerCommitResult, error) {
	var out staging.AnswerCommitResult
	if err := c.postJSON(ctx, "/api/answers/commit", req, onUpload, staging.ErrSessionExpired, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postUpload(ctx context.Context, path string, up Upload, fields map[string]string, out any) error {
	if err := staging.CheckUpload(up.Name, int64(len(up.Data))); err != nil {
		return err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", up.Name)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
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

	req, err := c.newRequest(ctx, http.MethodPost, path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, nil, out)
}
