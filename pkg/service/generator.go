package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" // 62 chars

var idBase = big.NewInt(int64(len(idAlphabet)))

// IDGenerator produces link identifiers. Identifiers double as capability
// tokens, so they must be unpredictable, not merely unique.
type IDGenerator interface {
	NewID() (string, error)
}

// RandomIDGenerator draws uniform base62 identifiers from crypto/rand.
type RandomIDGenerator struct {
	length int
}

// NewRandomIDGenerator creates a generator with a fixed length (default 12
// if <= 0). At 12 characters the space is 62^12, large enough that insert
// collisions are astronomically rare rather than impossible; the store's
// unique constraint catches the remainder.
func NewRandomIDGenerator(length int) *RandomIDGenerator {
	if length <= 0 {
		length = 12
	}
	return &RandomIDGenerator{length: length}
}

func (g *RandomIDGenerator) NewID() (string, error) {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		idx, err := rand.Int(rand.Reader, idBase) // uniform in [0,62)
		if err != nil {
			// Entropy exhaustion is fatal for the request, never papered over.
			return "", fmt.Errorf("generate id: %w", err)
		}
		b.WriteByte(idAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

var _ IDGenerator = (*RandomIDGenerator)(nil)
