package listview

// Selection is an insertion-ordered set of row ids.
type Selection[ID comparable] struct {
	index map[ID]int
	ids   []ID
}

func newSelection[ID comparable]() Selection[ID] {
	return Selection[ID]{index: make(map[ID]int)}
}

// Has reports whether id is selected.
func (s *Selection[ID]) Has(id ID) bool {
	_, ok := s.index[id]
	return ok
}

// Len is the number of selected ids.
func (s *Selection[ID]) Len() int { return len(s.ids) }

func (s *Selection[ID]) add(id ID) {
	if s.Has(id) {
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

func (s *Selection[ID]) remove(id ID) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	delete(s.index, id)
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}

// containsAll is false for an empty ids slice.
func (s *Selection[ID]) containsAll(ids []ID) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// toggleAll removes every id when all are selected, otherwise adds the missing ones.
func (s *Selection[ID]) toggleAll(ids []ID) {
	if len(ids) == 0 {
		return
	}
	if s.containsAll(ids) {
		for _, id := range ids {
			s.remove(id)
		}
		return
	}
	for _, id := range ids {
		s.add(id)
	}
}

func (s *Selection[ID]) clear() {
	clear(s.index)
	s.ids = s.ids[:0]
}

// Snapshot returns a copy of the selected ids in selection order.
func (s *Selection[ID]) Snapshot() []ID {
	out := make([]ID, len(s.ids))
	copy(out, s.ids)
	return out
}
