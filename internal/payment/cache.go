package payment

import (
	"sync"

	"github.com/metinatakli/storefront-payments/internal/domain"
)

// ClientCache holds one processor client per credential set. Entries are
// keyed by the SHA-256 fingerprint of the secret key so the key itself is
// never used as a map key. Rotated credentials get a fresh entry; Evict
// drops the stale one.
type ClientCache[T any] struct {
	mu        sync.Mutex
	clients   map[string]T
	newClient func(secretKey string) T
}

func NewClientCache[T any](newClient func(secretKey string) T) *ClientCache[T] {
	return &ClientCache[T]{
		clients:   make(map[string]T),
		newClient: newClient,
	}
}

func (c *ClientCache[T]) Get(secretKey string) T {
	fingerprint := domain.KeyFingerprint(secretKey)

	c.mu.Lock()
	defer c.mu.Unlock()

	client, ok := c.clients[fingerprint]
	if !ok {
		client = c.newClient(secretKey)
		c.clients[fingerprint] = client
	}

	return client
}

func (c *ClientCache[T]) Evict(secretKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.clients, domain.KeyFingerprint(secretKey))
}

func (c *ClientCache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clients = make(map[string]T)
}

func (c *ClientCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.clients)
}
