package coinflip

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Coin yields one fair boolean per call. Calls must be independent of each other.
type Coin interface {
	Toss() bool
}

// chachaCoin is a ChaCha8 stream seeded from crypto/rand. Safe for concurrent use.
type chachaCoin struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCoin returns a coin seeded from the operating system's entropy source.
func NewCoin() Coin {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// OS entropy unavailable, seed from the runtime generator instead.
		binary.LittleEndian.PutUint64(seed[:8], rand.Uint64())
		binary.LittleEndian.PutUint64(seed[8:16], rand.Uint64())
		binary.LittleEndian.PutUint64(seed[16:24], rand.Uint64())
		binary.LittleEndian.PutUint64(seed[24:], rand.Uint64())
	}
	return &chachaCoin{rng: rand.New(rand.NewChaCha8(seed))}
}

// NewSeededCoin returns a deterministic coin, useful for replaying a sequence.
func NewSeededCoin(seed uint64) Coin {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:8], seed)
	return &chachaCoin{rng: rand.New(rand.NewChaCha8(s))}
}

func (c *chachaCoin) Toss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Uint64()&1 == 1
}

// CoinFunc adapts a function to Coin.
type CoinFunc func() bool

func (f CoinFunc) Toss() bool { return f() }
