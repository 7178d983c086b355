package shared

import "sync"

// UnitLocks serialises mutations per restaurant unit within one process.
type UnitLocks struct {
	mu    sync.Mutex
	units map[string]*sync.Mutex
}

// NewUnitLocks constructs an empty lock table.
func NewUnitLocks() *UnitLocks {
	return &UnitLocks{units: make(map[string]*sync.Mutex)}
}

// Lock acquires the unit's mutex and returns the matching unlock func.
func (l *UnitLocks) Lock(unitID string) func() {
	l.mu.Lock()
	m, ok := l.units[unitID]
	if !ok {
		m = &sync.Mutex{}
		l.units[unitID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
