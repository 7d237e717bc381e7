package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// Locker serializes work on one record. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, id uint) (func(), error)
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// MutexLocker keeps one lock per record id in memory. Entries are dropped once unused.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

// NewMutexLocker creates an in-process locker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[uint]*lockEntry)}
}

// Lock waits for the record lock or for ctx to end.
func (l *MutexLocker) Lock(ctx context.Context, id uint) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(id, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(id, e)
		return nil, ctx.Err()
	}
}

func (l *MutexLocker) release(id uint, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}

// FileLocker extends record locks across processes with one lock file per record.
type FileLocker struct {
	dir   string
	local *MutexLocker
	retry time.Duration
}

// NewFileLocker creates a locker keeping lock files in dir.
func NewFileLocker(dir string) (*FileLocker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir %s: %w", dir, err)
	}
	return &FileLocker{dir: dir, local: NewMutexLocker(), retry: 50 * time.Millisecond}, nil
}

// Lock takes the in-process lock, then the lock file.
func (l *FileLocker) Lock(ctx context.Context, id uint) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, id)
	if err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(l.dir, fmt.Sprintf("record-%d.lock", id)))
	ok, err := fl.TryLockContext(ctx, l.retry)
	if err != nil || !ok {
		unlockLocal()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("failed to lock record %d: %w", id, err)
	}

	return func() {
		_ = fl.Unlock()
		unlockLocal()
	}, nil
}
