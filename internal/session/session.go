package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who a displayed message belongs to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single displayed chat message
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Markup    string    `json:"markup,omitempty"` // Formatted fragment, assistant messages only
	Timestamp time.Time `json:"timestamp"`
}

const (
	idPrefix    = "session_"
	randomChars = 9
)

// Generator hands out session identifiers of the form
// session_<9 random alphanumerics>_<unix millis>. The timestamp part never
// decreases across calls, even if the wall clock is stepped backwards.
type Generator struct {
	mu     sync.Mutex
	now    func() time.Time
	random func() string
	last   int64
}

// NewGenerator returns a Generator backed by the wall clock and UUIDv4 randomness.
func NewGenerator() *Generator {
	return &Generator{
		now:    time.Now,
		random: randomComponent,
	}
}

// NewGeneratorWith is NewGenerator with injected clock and random source.
func NewGeneratorWith(now func() time.Time, random func() string) *Generator {
	return &Generator{now: now, random: random}
}

// Next returns a fresh session identifier.
func (g *Generator) Next() string {
	g.mu.Lock()
	ts := g.now().UnixMilli()
	if ts < g.last {
		ts = g.last
	}
	g.last = ts
	g.mu.Unlock()

	return fmt.Sprintf("%s%s_%d", idPrefix, g.random(), ts)
}

// randomComponent takes the first hex digits of a v4 UUID.
func randomComponent() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:randomChars]
}
