package backend

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/mancerhq/mancer/core/mcontext"
)

// idleTimeout is how long a pooled connection may sit unused before a
// subsequent GetOrDial redials rather than reusing it, per spec.md §5.
const idleTimeout = 60 * time.Second

type pooledConn struct {
	client   *ssh.Client
	lastUsed time.Time
}

// Pool maintains at most one live SSH connection per (host, user, port).
// Thread-safe: GetOrDial/CloseAll may be called concurrently.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*pooledConn
}

// NewPool returns an empty connection pool.
func NewPool() *Pool {
	return &Pool{conns: make(map[string]*pooledConn)}
}

func poolKey(target *mcontext.RemoteTarget) string {
	return fmt.Sprintf("%s@%s:%d", target.User, target.Host, target.Port)
}

// GetOrDial returns a pooled connection for target, dialing a new one if
// none exists or the existing one has been idle past idleTimeout.
func (p *Pool) GetOrDial(target *mcontext.RemoteTarget) (*ssh.Client, error) {
	key := poolKey(target)

	p.mu.Lock()
	if existing, ok := p.conns[key]; ok {
		if time.Since(existing.lastUsed) < idleTimeout {
			existing.lastUsed = time.Now()
			client := existing.client
			p.mu.Unlock()
			return client, nil
		}
		_ = existing.client.Close()
		delete(p.conns, key)
	}
	p.mu.Unlock()

	client, err := dial(target)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.conns[key] = &pooledConn{client: client, lastUsed: time.Now()}
	p.mu.Unlock()

	return client, nil
}

// CloseAll closes every pooled connection. Safe to call multiple times.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for key, conn := range p.conns {
		if err := conn.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, key)
	}
	return firstErr
}
