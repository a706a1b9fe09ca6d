// Package review lets a person curate staged blocks before an irreversible
// commit. Nothing here talks to the network.
package review

import (
	"errors"
	"fmt"
	"sync"

	"qbank-admin/pkg/staging"
)

var (
	ErrUnknownBlock = errors.New("review: unknown block index")
	ErrSealed       = errors.New("review: a commit is in flight")
)

// Scope selects blocks for SelectAll.
type Scope string

const (
	ScopeAll     Scope = "ALL"
	ScopeNone    Scope = "NONE"
	ScopeValid   Scope = "VALID"
	ScopeInvalid Scope = "INVALID"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, ScopeNone, ScopeValid, ScopeInvalid:
		return Scope(s), nil
	}
	return "", staging.NewValidationError("unknown selection scope", staging.FieldError{Field: "scope", Error: fmt.Sprintf("%q", s)})
}

// Phase is the review state of one block. Included and Excluded are only
// reached when a commit seals the review.
type Phase int

const (
	PhaseParsed Phase = iota
	PhaseReviewing
	PhaseEditing
	PhaseIncluded
	PhaseExcluded
)

func (p Phase) String() string {
	return [...]string{"parsed", "reviewing", "editing", "included", "excluded"}[p]
}

type Summary struct {
	Total    int
	Included int
	Excluded int
	Valid    int
	Invalid  int
	// SelectedInvalid counts blocks that are included despite failing validation.
	SelectedInvalid int
}

// Controller holds the local include flags and phases of one staging session.
type Controller[B staging.Block] struct {
	mu        sync.Mutex
	sessionID string
	subjectID int64
	blocks    []B
	byIndex   map[int]int
	phases    map[int]Phase
	sealed    bool
	expired   bool
}

func newController[B staging.Block](sessionID string, subjectID int64, blocks []B) *Controller[B] {
	c := &Controller[B]{
		sessionID: sessionID,
		subjectID: subjectID,
		blocks:    blocks,
		byIndex:   make(map[int]int, len(blocks)),
		phases:    make(map[int]Phase, len(blocks)),
	}
	for i, b := range blocks {
		c.byIndex[b.Position()] = i
		c.phases[b.Position()] = PhaseParsed
	}
	return c
}

func (c *Controller[B]) SessionID() string { return c.sessionID }
func (c *Controller[B]) SubjectID() int64 { return c.subjectID }

// Blocks returns the blocks in document order.
func (c *Controller[B]) Blocks() []B {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]B(nil), c.blocks...)
}

func (c *Controller[B]) Block(index int) (B, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(index)
}

func (c *Controller[B]) Phase(index int) (Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lookup(index); err != nil {
		return 0, err
	}
	return c.phases[index], nil
}

// ToggleInclude flips the include flag of one block and returns the new value.
// Invalid blocks may be included; Summary reports them separately.
func (c *Controller[B]) ToggleInclude(index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.mutable(index)
	if err != nil {
		return false, err
	}
	b.SetIncluded(!b.Included())
	c.touch(index)
	return b.Included(), nil
}

func (c *Controller[B]) SetInclude(index int, include bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.mutable(index)
	if err != nil {
		return err
	}
	b.SetIncluded(include)
	c.touch(index)
	return nil
}

// SelectAll applies scope in one pass. VALID and INVALID also exclude the
// complementary blocks, so the result is exactly the scoped set.
func (c *Controller[B]) SelectAll(scope Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return ErrSealed
	}
	for _, b := range c.blocks {
		switch scope {
		case ScopeAll:
			b.SetIncluded(true)
		case ScopeNone:
			b.SetIncluded(false)
		case ScopeValid:
			b.SetIncluded(staging.Valid(b))
		case ScopeInvalid:
			b.SetIncluded(!staging.Valid(b))
		default:
			return fmt.Errorf("review: unknown scope %q", scope)
		}
		c.touch(b.Position())
	}
	return nil
}

func (c *Controller[B]) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s Summary
	for _, b := range c.blocks {
		s.Total++
		valid := staging.Valid(b)
		if valid {
			s.Valid++
		} else {
			s.Invalid++
		}
		if b.Included() {
			s.Included++
			if !valid {
				s.SelectedInvalid++
			}
		} else {
			s.Excluded++
		}
	}
	return s
}

func (c *Controller[B]) IncludedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.blocks {
		if b.Included() {
			n++
		}
	}
	return n
}

// EndEdit moves a block out of the editing phase.
func (c *Controller[B]) EndEdit(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.lookup(index); err != nil {
		return err
	}
	if c.phases[index] == PhaseEditing {
		c.phases[index] = PhaseReviewing
	}
	return nil
}

// Seal freezes the review for a commit; every block lands in its terminal phase.
func (c *Controller[B]) Seal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return staging.ErrSessionExpired
	}
	if c.sealed {
		return ErrSealed
	}
	c.sealed = true
	for _, b := range c.blocks {
		if b.Included() {
			c.phases[b.Position()] = PhaseIncluded
		} else {
			c.phases[b.Position()] = PhaseExcluded
		}
	}
	return nil
}

// Unseal reopens the review after a failed commit, keeping all edits.
func (c *Controller[B]) Unseal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = false
	for idx := range c.phases {
		c.phases[idx] = PhaseReviewing
	}
}

// MarkExpired records that the backend no longer holds the session.
func (c *Controller[B]) MarkExpired() {
	c.mu.Lock()
	c.expired = true
	c.mu.Unlock()
}

func (c *Controller[B]) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

func (c *Controller[B]) lookup(index int) (B, error) {
	i, ok := c.byIndex[index]
	if !ok {
		var zero B
		return zero, fmt.Errorf("%w: %d", ErrUnknownBlock, index)
	}
	return c.blocks[i], nil
}

func (c *Controller[B]) mutable(index int) (B, error) {
	if c.sealed {
		var zero B
		return zero, ErrSealed
	}
	return c.lookup(index)
}

func (c *Controller[B]) touch(index int) {
	if c.phases[index] == PhaseParsed {
		c.phases[index] = PhaseReviewing
	}
}
