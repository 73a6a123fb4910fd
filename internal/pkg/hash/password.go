package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrTooLong is returned by Bcrypt for input past bcrypt's 72-byte limit.
var ErrTooLong = errors.New("hash: password too long for bcrypt")

// Bcrypt hashes passwords with bcrypt. The pepper is appended before hashing
// and lives in configuration, never next to the hashes.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt clamps cost into bcrypt's accepted range.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	cost = max(bcrypt.MinCost, min(bcrypt.MaxCost, cost))
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	peppered := []byte(plaintext + h.pepper)
	if len(peppered) > 72 {
		return nil, ErrTooLong
	}

	return bcrypt.GenerateFromPassword(peppered, h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}

// argonParams is the parameter block encoded into every Argon2id hash, so
// hashes made under older settings still verify.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (p argonParams) encode() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key),
	)
}

func decodeArgon(encoded string) (argonParams, bool) {
	var p argonParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, false
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, false
	}

	return p, true
}

// Argon2id hashes passwords with Argon2id in the PHC string format. At most
// two derivations run at once to bound memory use.
type Argon2id struct {
	memory  uint32
	time    uint32
	threads uint8
	pepper  string
	slots   chan struct{}
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		memory:  32 * 1024,
		time:    3,
		threads: 2,
		pepper:  pepper,
		slots:   make(chan struct{}, 2),
	}
}

func (a *Argon2id) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: salt: %w", err)
	}

	p := argonParams{memory: a.memory, time: a.time, threads: a.threads, salt: salt}
	p.key = a.derive(plaintext, p, 32)

	return []byte(p.encode()), nil
}

func (a *Argon2id) Verify(hashed, plaintext string) bool {
	p, ok := decodeArgon(hashed)
	if !ok || plaintext == "" {
		return false
	}

	got := a.derive(plaintext, p, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(p.key, got) == 1
}

func (a *Argon2id) derive(plaintext string, p argonParams, keyLen uint32) []byte {
	a.slots <- struct{}{}
	defer func() { <-a.slots }()

	return argon2.IDKey([]byte(plaintext+a.pepper), p.salt, p.time, p.memory, p.threads, keyLen)
}
