// Package review implements the disposition state machine for one
// review pass over a finalized group list. Both the line-mode and TUI
// front ends drive the same transitions; they differ only in how the
// operator supplies the keep-set.
package review

import (
	"errors"
	"fmt"

	"dupescan/internal/dfs"
	"dupescan/internal/dgroup"
	"dupescan/internal/dlog"
)

// Disposer performs the filesystem action for a single record. The
// dispose package's Executor is the production implementation.
type Disposer interface {
	Move(rec *dfs.Dfile) error
	Delete(rec *dfs.Dfile) error
}

// KeepSet is the set of 0-based member positions that survive a Move or
// Delete. It is carried structurally; front ends never derive it by
// parsing rendered labels.
type KeepSet map[int]bool

// ErrEmptyKeepSet rejects a Move or Delete that would leave no
// survivor. At least one member must always be kept.
var ErrEmptyKeepSet = errors.New("keep-set is empty: at least one file must be kept")

// Stats are the aggregate counters for one review pass. Dry-run and
// live passes over the same decisions produce identical counters.
type Stats struct {
	Reviewed int // groups resolved via Move or Delete
	Skipped  int // groups skipped
	Moved    int // files moved to quarantine
	Deleted  int // files deleted
	Failed   int // per-file disposition failures
}

// Session walks the group list. The index only advances on
// Move/Delete/Skip; Prev/Next revisit without touching counters.
// index == len(groups) means the pass is complete.
type Session struct {
	groups   []*dgroup.Group
	index    int
	stats    Stats
	disposer Disposer
	quit     bool
}

// NewSession starts a review pass at the first group.
func NewSession(groups []*dgroup.Group, disposer Disposer) *Session {
	return &Session{groups: groups, disposer: disposer}
}

// Current returns the group under review, or false when the session is
// done.
func (s *Session) Current() (*dgroup.Group, bool) {
	if s.Done() {
		return nil, false
	}
	return s.groups[s.index], true
}

// Done reports whether the pass is complete, either by reaching the end
// of the group list or by an explicit Quit.
func (s *Session) Done() bool {
	return s.quit || s.index >= len(s.groups)
}

// Index returns the 0-based position of the current group.
func (s *Session) Index() int { return s.index }

// Len returns the total number of groups in the pass.
func (s *Session) Len() int { return len(s.groups) }

// Stats returns the counters recorded so far. After Done they are final.
func (s *Session) Stats() Stats { return s.stats }

// Move submits every member outside the keep-set as a move request,
// then advances. An empty or invalid keep-set rejects the transition
// with no state change and no side effect.
func (s *Session) Move(keep KeepSet) error {
	return s.disposeCurrent(keep, true)
}

// Delete is symmetric to Move but submits delete requests.
func (s *Session) Delete(keep KeepSet) error {
	return s.disposeCurrent(keep, false)
}

// Skip advances past the current group with no filesystem action.
func (s *Session) Skip() {
	if s.Done() {
		return
	}
	s.stats.Skipped++
	s.index++
}

// Prev moves back one group for revisiting. It never touches counters
// and never repeats a prior disposition.
func (s *Session) Prev() {
	if s.quit {
		return
	}
	if s.index > 0 {
		s.index--
	}
}

// Next moves forward one group without disposing it, clamped to the
// last group.
func (s *Session) Next() {
	if s.quit {
		return
	}
	if s.index < len(s.groups)-1 {
		s.index++
	}
}

// Quit terminates the session early. Counters recorded so far are
// final; no further transitions take effect.
func (s *Session) Quit() {
	s.quit = true
}

func (s *Session) disposeCurrent(keep KeepSet, move bool) error {
	group, ok := s.Current()
	if !ok {
		return errors.New("review session is done")
	}

	if len(keep) == 0 {
		return ErrEmptyKeepSet
	}
	for idx := range keep {
		if idx < 0 || idx >= group.Len() {
			return fmt.Errorf("keep index %d out of range [0, %d)", idx, group.Len())
		}
	}

	// The loop below is the only place dispositions are issued, and the
	// index advance removes the group from further consideration, so no
	// record is ever disposed twice.
	for i, rec := range group.Files() {
		if keep[i] {
			continue
		}

		var err error
		if move {
			err = s.disposer.Move(rec)
		} else {
			err = s.disposer.Delete(rec)
		}
		if err != nil {
			dlog.Logger.Warnf("Disposition failed: %v", err)
			s.stats.Failed++
			continue
		}
		if move {
			s.stats.Moved++
		} else {
			s.stats.Deleted++
		}
	}

	s.stats.Reviewed++
	s.index++
	return nil
}
