package testfixtures

import (
	"fmt"
	"sync"
)

// TokenGenerator yields predictable session ids and tokens such as
// "tok-1", "tok-2" in place of random ones.
type TokenGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewTokenGenerator returns a generator using prefix, or "tok" when empty.
func NewTokenGenerator(prefix string) *TokenGenerator {
	if prefix == "" {
		prefix = "tok"
	}
	return &TokenGenerator{prefix: prefix}
}

// Next returns the next token in the sequence.
func (g *TokenGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next for constructors taking func() string.
func (g *TokenGenerator) NextFunc() func() string {
	if g == nil {
		return nil
	}
	return g.Next
}

// Issued reports how many tokens have been handed out.
func (g *TokenGenerator) Issued() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}
