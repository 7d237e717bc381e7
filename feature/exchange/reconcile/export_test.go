package reconcile

// Held returns the number of records with a lock held or awaited.
func (l *MutexLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
