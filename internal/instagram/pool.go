package instagram

import (
	"math/rand"
	"time"
)

// identities is the fixed pool of client identity strings presented
// upstream. Rotating between them reduces correlated blocking.
var identities = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Pool holds one pre-built client per identity. Clients are immutable
// once constructed, so handing the same client to concurrent requests
// is safe; there is no shared mutable identity state to interfere with.
type Pool struct {
	clients []*Client
}

// NewPool builds a client pool over the built-in identity set.
func NewPool(timeout time.Duration) *Pool {
	clients := make([]*Client, len(identities))
	for i, ua := range identities {
		clients[i] = NewClient(ua, timeout)
	}
	return &Pool{clients: clients}
}

// Pick returns a randomly selected client. Each retrieval attempt picks
// afresh, which is what rotates the presented identity.
func (p *Pool) Pick() *Client {
	return p.clients[rand.Intn(len(p.clients))]
}

// Size returns the number of distinct identities in the pool.
func (p *Pool) Size() int { return len(p.clients) }
