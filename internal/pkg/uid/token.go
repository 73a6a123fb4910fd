package uid

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"time"
)

// Token generates opaque, unguessable strings used as provisional login
// tokens: a 4-byte unix-seconds prefix for rough ordering followed by 20
// random bytes, base64url encoded and prefixed.
type Token struct {
	prefix string
	now    func() time.Time
}

func NewToken(prefix string) *Token {
	return &Token{prefix: prefix, now: time.Now}
}

func (t *Token) Generate() string {
	var raw [24]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(t.now().Unix()))
	// crypto/rand.Read never returns an error since Go 1.24
	_, _ = rand.Read(raw[4:])

	return t.prefix + base64.RawURLEncoding.EncodeToString(raw[:])
}
