package routing

// OrderedAddressSet is a set of Addresses with stable insertion order and
// indexed access, used for round-robin walks over role sets. Duplicates are
// ignored on insert. The vector and the index map are kept in lock-step;
// every mutation touches both.
type OrderedAddressSet struct {
	elems []Address
	index map[Address]int
}

// NewOrderedAddressSet builds a set pre-populated with the given addresses,
// in order, de-duplicated.
func NewOrderedAddressSet(addrs ...Address) *OrderedAddressSet {
	s := &OrderedAddressSet{index: make(map[Address]int)}
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// Contains reports whether addr is a member of the set.
func (s *OrderedAddressSet) Contains(addr Address) bool {
	_, ok := s.index[addr]
	return ok
}

// Add appends addr if it isn't already present. Idempotent.
func (s *OrderedAddressSet) Add(addr Address) {
	if _, ok := s.index[addr]; ok {
		return
	}
	s.index[addr] = len(s.elems)
	s.elems = append(s.elems, addr)
}

// Discard removes addr if present; it is a no-op if addr is absent.
func (s *OrderedAddressSet) Discard(addr Address) {
	i, ok := s.index[addr]
	if !ok {
		return
	}
	s.removeAt(i)
}

// Remove removes addr, returning an error if it was not a member.
func (s *OrderedAddressSet) Remove(addr Address) error {
	i, ok := s.index[addr]
	if !ok {
		return ErrAddressNotFound
	}
	s.removeAt(i)
	return nil
}

func (s *OrderedAddressSet) removeAt(i int) {
	removed := s.elems[i]
	s.elems = append(s.elems[:i], s.elems[i+1:]...)
	delete(s.index, removed)
	for j := i; j < len(s.elems); j++ {
		s.index[s.elems[j]] = j
	}
}

// Clear empties the set.
func (s *OrderedAddressSet) Clear() {
	s.elems = nil
	s.index = make(map[Address]int)
}

// Replace atomically clears the set and repopulates it from addrs, in
// order, de-duplicated.
func (s *OrderedAddressSet) Replace(addrs []Address) {
	s.Clear()
	for _, a := range addrs {
		s.Add(a)
	}
}

// Len returns the number of distinct addresses in the set.
func (s *OrderedAddressSet) Len() int {
	return len(s.elems)
}

// At returns the address at insertion-order index i.
func (s *OrderedAddressSet) At(i int) Address {
	return s.elems[i]
}

// Slice returns a copy of the set's contents in insertion order.
func (s *OrderedAddressSet) Slice() []Address {
	out := make([]Address, len(s.elems))
	copy(out, s.elems)
	return out
}
