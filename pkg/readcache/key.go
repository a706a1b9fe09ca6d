package readcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Query identifies one page of a paginated list read. Options holds the
// endpoint-specific filters; it may be a map or a struct.
type Query struct {
	SubjectID int64
	Page      int
	Size      int
	Options   any
}

// KeyOf returns the canonical cache key for q under the given epoch: compact
// JSON with object keys sorted and every null field stripped, so semantically
// equal queries collide regardless of field order or explicit nulls.
func KeyOf(epoch uint64, q Query) (string, error) {
	key := map[string]any{
		"epoch":     epoch,
		"subjectId": q.SubjectID,
		"page":      q.Page,
		"size":      q.Size,
	}

	opts, err := normalize(q.Options)
	if err != nil {
		return "", fmt.Errorf("normalize query options: %w", err)
	}
	if m, ok := opts.(map[string]any); ok && len(m) > 0 {
		key["options"] = m
	}

	out, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// normalize round-trips v through JSON so typed nil pointers become nulls,
// then drops nulls from every object.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return stripNulls(generic), nil
}

func stripNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			t[k] = stripNulls(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = stripNulls(child)
		}
		return t
	default:
		return v
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// containsField reports whether fragment occurs in key as a whole member, so
// "subjectId":7 does not match "subjectId":70.
func containsField(key, fragment string) bool {
	for i := 0; i < len(key); {
		j := strings.Index(key[i:], fragment)
		if j < 0 {
			return false
		}
		end := i + j + len(fragment)
		if end == len(key) || key[end] == ',' || key[end] == '}' {
			return true
		}
		i = end
	}
	return false
}
