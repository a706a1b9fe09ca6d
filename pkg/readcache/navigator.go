package readcache

import (
	"strings"
	"sync"
)

// Epoch supplies the navigation epoch mixed into every cache key.
type Epoch interface {
	Current() uint64
}

// Advancer is an Epoch that announces when it moves forward.
type Advancer interface {
	Epoch
	OnAdvance(fn func(epoch uint64))
}

// Navigator tracks the current navigation group (the first two path
// segments) and advances a monotonic epoch whenever the group changes.
type Navigator struct {
	mu        sync.Mutex
	group     string
	epoch     uint64
	listeners []func(uint64)
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

func (n *Navigator) Current() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.epoch
}

func (n *Navigator) Group() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.group
}

func (n *Navigator) OnAdvance(fn func(epoch uint64)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Navigate records a visit to path. It reports whether the group changed,
// in which case the epoch has advanced and listeners were notified.
func (n *Navigator) Navigate(path string) bool {
	group := GroupOf(path)

	n.mu.Lock()
	if group == n.group {
		n.mu.Unlock()
		return false
	}
	n.group = group
	n.epoch++
	epoch := n.epoch
	listeners := append([]func(uint64){}, n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(epoch)
	}
	return true
}

// GroupOf returns the first two segments of a route path, ignoring query
// string and fragment.
func GroupOf(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := make([]string, 0, 2)
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		segments = append(segments, s)
		if len(segments) == 2 {
			break
		}
	}
	return "/" + strings.Join(segments, "/")
}

type staticEpoch uint64

func (e staticEpoch) Current() uint64 { return uint64(e) }
