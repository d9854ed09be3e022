package checkout

import (
	"crypto/rand"
	"fmt"
	"sync/atomic"
	"time"
)

const (
	orderNumberPrefix = "BA"
	suffixAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	suffixLength      = 4
)

// NumberGenerator produces order numbers. Implementations must be safe for
// concurrent use.
type NumberGenerator interface {
	Next() string
}

// OrderNumbers builds numbers of the form BA<unix millis><4-digit sequence><4
// random characters>. The sequence keeps numbers generated in the same
// millisecond by this process apart; the random suffix keeps processes apart.
type OrderNumbers struct {
	seq atomic.Uint64
	now func() time.Time
}

func NewOrderNumbers() *OrderNumbers {
	return &OrderNumbers{now: time.Now}
}

func (g *OrderNumbers) Next() string {
	seq := g.seq.Add(1) % 10000
	return fmt.Sprintf("%s%d%04d%s", orderNumberPrefix, g.now().UnixMilli(), seq, randomSuffix())
}

func randomSuffix() string {
	var buf [suffixLength]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf[:])
}
