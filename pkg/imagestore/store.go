// Package imagestore keeps the pictures cut from a staged document until the
// session is committed or expires.
package imagestore

import (
	"context"
	"strconv"
	"time"
)

type Image struct {
	ContentType string
	Data        []byte
}

// Store addresses images by (session id, image index). Get returns
// staging.ErrImageNotFound once the session is gone.
type Store interface {
	Save(ctx context.Context, sessionID string, index int, img Image, ttl time.Duration) error
	Get(ctx context.Context, sessionID string, index int) (Image, error)
	Purge(ctx context.Context, sessionID string) (int, error)
}

func key(sessionID string, index int) string {
	return sessionID + ":" + strconv.Itoa(index)
}
