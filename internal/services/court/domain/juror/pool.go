package juror

// Pool is the set of jurors available for selection.
//
// Members live in a slice with an index map alongside it. Removal swaps the
// target with the last slot and pops, so neither add nor remove shifts the
// slice.
type Pool struct {
	members []string
	index   map[string]int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{index: make(map[string]int)}
}

// Add inserts account into the pool. It reports false when already present.
func (p *Pool) Add(account string) bool {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if _, ok := p.index[account]; ok {
		return false
	}
	p.index[account] = len(p.members)
	p.members = append(p.members, account)
	return true
}

// Remove deletes account from the pool. It reports false when absent.
func (p *Pool) Remove(account string) bool {
	slot, ok := p.index[account]
	if !ok {
		return false
	}
	last := len(p.members) - 1
	if slot != last {
		moved := p.members[last]
		p.members[slot] = moved
		p.index[moved] = slot
	}
	p.members[last] = ""
	p.members = p.members[:last]
	delete(p.index, account)
	return true
}

// Contains reports whether account is in the pool.
func (p *Pool) Contains(account string) bool {
	if p == nil {
		return false
	}
	_, ok := p.index[account]
	return ok
}

// Len returns the number of available jurors.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.members)
}

// Members returns a copy of the pool in slot order.
func (p *Pool) Members() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.members...)
}

// Clone returns an independent copy of the pool.
func (p *Pool) Clone() *Pool {
	clone := NewPool()
	if p == nil {
		return clone
	}
	clone.members = append(clone.members, p.members...)
	for account, slot := range p.index {
		clone.index[account] = slot
	}
	return clone
}

// Equal reports whether both pools hold the same members in the same slots.
func (p *Pool) Equal(other *Pool) bool {
	if p.Len() != other.Len() {
		return false
	}
	for slot := 0; slot < p.Len(); slot++ {
		if p.members[slot] != other.members[slot] {
			return false
		}
	}
	return true
}
