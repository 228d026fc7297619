package receiver

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync/atomic"
)

// cookieGenerator hands out transfer cookies.
//
// The first cookie is taken from crypto/rand so that cookies of a restarted
// receiver do not collide with the ones a sender may still hold. Zero is never
// returned.
type cookieGenerator struct {
	id atomic.Uint32
}

func newCookieGenerator() *cookieGenerator {
	gen := &cookieGenerator{}
	var buf [4]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return gen
	}
	gen.id.Store(binary.LittleEndian.Uint32(buf[:]))

	return gen
}

func (g *cookieGenerator) next() uint32 {
	for {
		if id := g.id.Add(1); id != 0 {
			return id
		}
	}
}
