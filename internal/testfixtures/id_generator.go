package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator hands out predictable user IDs and session tokens. The two
// sequences are independent so a test can predict the nth user ID no matter
// how many sessions were issued in between.
type IDGenerator struct {
	prefix string
	users  atomic.Uint64
	tokens atomic.Uint64
}

// NewIDGenerator returns a generator whose user IDs look like "<prefix>-N".
// An empty prefix means "user".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "user"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next user ID.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.users.Add(1))
}

// Token returns the next session token.
func (g *IDGenerator) Token() string {
	return fmt.Sprintf("token-%s-%d", g.prefix, g.tokens.Add(1))
}

// NextFunc adapts Next for injection into a service.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// TokenFunc adapts Token for injection into a service.
func (g *IDGenerator) TokenFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Token
}
