// Package hash turns secrets into storable digests. The mock backend hashes
// account passwords with Bcrypt or Argon2id and keys stored OTP challenges by
// the HMAC of the provisional token, so raw tokens never reach storage.
package hash

// Hash turns a secret into a storable digest and checks candidates against it.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
