package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"qbank-admin/pkg/readcache"
)

type ArchiveFile struct {
	ID              uuid.UUID `json:"id"`
	SubjectID       int64     `json:"subjectId"`
	Name            string    `json:"name"`
	Size            int64     `json:"size"`
	MimeType        string    `json:"mimeType"`
	SourceSessionID string    `json:"sourceSessionId"`
	CreatedAt       time.Time `json:"createdAt"`
}

type FilePage struct {
	Items []ArchiveFile `json:"items"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Total int64         `json:"total"`
}

// FileFilters narrow a listing. Nil fields are left out of the request and
// of the cache key.
type FileFilters struct {
	Name     *string `json:"name"`
	MimeType *string `json:"mimeType"`
}

type FileQuery struct {
	SubjectID int64
	Page      int
	Size      int
	Filters   FileFilters
}

func (q FileQuery) cacheQuery() readcache.Query {
	return readcache.Query{SubjectID: q.SubjectID, Page: q.Page, Size: q.Size, Options: q.Filters}
}

// ListFiles reads one archive page through the listing cache.
func (c *Client) ListFiles(ctx context.Context, q FileQuery) (*FilePage, error) {
	return c.files.GetOrFetch(ctx, q.cacheQuery(), func(ctx context.Context) (*FilePage, error) {
		return c.fetchFiles(ctx, q)
	})
}

// FilesCached reports whether q would be served without a request.
func (c *Client) FilesCached(q FileQuery) bool {
	return c.files.IsCached(q.cacheQuery())
}

func (c *Client) fetchFiles(ctx context.Context, q FileQuery) (*FilePage, error) {
	v := url.Values{}
	v.Set("subjectId", strconv.FormatInt(q.SubjectID, 10))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.Filters.Name != nil {
		v.Set("name", *q.Filters.Name)
	}
	if q.Filters.MimeType != nil {
		v.Set("mimeType", *q.Filters.MimeType)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/files?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out FilePage
	if err := c.do(req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
