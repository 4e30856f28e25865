package memory

import (
	"context"
	"sync"
)

// rowLocks mutex exclusivo por llave (tabla:id) que se mantiene hasta el fin de la transacción.
// Sustituye al SELECT ... FOR UPDATE de PostgreSQL.
type rowLocks struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func newRowLocks() *rowLocks {
	return &rowLocks{held: make(map[string]chan struct{})}
}

// acquire bloquea hasta obtener la llave o hasta que ctx se cancele.
func (l *rowLocks) acquire(ctx context.Context, key string) error {
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *rowLocks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.held[key]; ok {
		delete(l.held, key)
		close(ch)
	}
}

func lockKey(table, id string) string {
	return table + ":" + id
}
