package syncstore

import (
	"context"
	"sort"
)

func (s *Store) loop() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.wakeup:
			// Stopped sync keeps the dirty set; StartSync wakes the loop again.
			if s.syncActive.Load() {
				s.dispatch()
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) signalWakeup() {
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}

func (s *Store) markAllDirty() {
	s.mu.Lock()
	for id := range s.observers {
		s.dirty[id] = true
	}
	s.mu.Unlock()
	s.signalWakeup()
}

// popDirty returns the observers waiting for a delivery, oldest first.
func (s *Store) popDirty() []*observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*observer, 0, len(s.dirty))
	for id := range s.dirty {
		if obs, ok := s.observers[id]; ok {
			out = append(out, obs)
		}
		delete(s.dirty, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (s *Store) stillObserving(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.observers[id]
	return ok && !s.closed
}

// dispatch runs callbacks without holding mu, so a callback may register or
// cancel handles.
func (s *Store) dispatch() {
	for _, obs := range s.popDirty() {
		docs, err := s.query(context.Background(), obs.query)
		if err != nil {
			s.log.Error("observer query failed", "id", obs.id, "error", err)
			continue
		}
		if !s.stillObserving(obs.id) {
			continue
		}
		obs.onChange(docs)
	}
}
