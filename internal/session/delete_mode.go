package session

import (
	"slices"

	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/errors"
)

// InDeleteMode reports whether bulk delete is in progress.
func (s *Session) InDeleteMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteMode
}

// BeginDelete enters delete mode. Every selection is cleared first. While in
// delete mode, selection, filter and edit calls fail with CONFLICT.
func (s *Session) BeginDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardDeleteMode(); err != nil {
		return err
	}
	s.sel.ClearAll()
	clear(s.marked)
	s.deleteMode = true
	s.logger.Debug("delete mode entered")
	return nil
}

// MarkForDelete toggles id in the pending delete set and reports whether it
// is now marked.
func (s *Session) MarkForDelete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.deleteMode {
		return false, errors.NewConflict("delete mode is not active")
	}
	if _, _, err := s.find(id); err != nil {
		return false, err
	}
	if _, ok := s.marked[id]; ok {
		delete(s.marked, id)
		return false, nil
	}
	s.marked[id] = struct{}{}
	return true, nil
}

// Marked returns the ids pending deletion in sorted order.
func (s *Session) Marked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markedIDs()
}

func (s *Session) markedIDs() []string {
	ids := make([]string, 0, len(s.marked))
	for id := range s.marked {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ConfirmDelete deletes every marked snippet and leaves delete mode.
func (s *Session) ConfirmDelete() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.deleteMode {
		return 0, errors.NewConflict("delete mode is not active")
	}
	ids := s.markedIDs()
	s.deleteMode = false
	clear(s.marked)
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.delete(ids)
	if err != nil {
		return n, err
	}
	s.logger.Info("bulk delete confirmed", zap.Int("count", n))
	return n, nil
}

// CancelDelete leaves delete mode without deleting anything.
func (s *Session) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteMode = false
	clear(s.marked)
}
