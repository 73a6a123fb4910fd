package seal

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, 32)
}

func TestAESGCM(t *testing.T) {
	s, err := NewAESGCM(testKey())
	if err != nil {
		t.Fatalf("NewAESGCM() error = %v", err)
	}

	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		plain := []byte(`{"token":"abc"}`)

		// Act
		sealed, err := s.Seal(plain, "auth-storage")
		if err != nil {
			t.Fatalf("Seal() error = %v", err)
		}
		got, err := s.Open(sealed, "auth-storage")

		// Assert
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if !bytes.Equal(got, plain) {
			t.Fatalf("Open() = %q, want %q", got, plain)
		}
		if bytes.Contains(sealed, []byte("abc")) {
			t.Fatalf("sealed blob leaks plaintext")
		}
	})

	t.Run("WrongLabel", func(t *testing.T) {
		sealed, _ := s.Seal([]byte("x"), "auth-storage")

		if _, err := s.Open(sealed, "temp-auth"); !errors.Is(err, ErrOpen) {
			t.Fatalf("Open() error = %v, want %v", err, ErrOpen)
		}
	})

	t.Run("Tampered", func(t *testing.T) {
		sealed, _ := s.Seal([]byte("payload"), "k")
		sealed[len(sealed)-1] ^= 0xff

		if _, err := s.Open(sealed, "k"); !errors.Is(err, ErrOpen) {
			t.Fatalf("Open() error = %v, want %v", err, ErrOpen)
		}
	})

	t.Run("TooShort", func(t *testing.T) {
		if _, err := s.Open([]byte("{}"), "k"); !errors.Is(err, ErrTooShort) {
			t.Fatalf("Open() error = %v, want %v", err, ErrTooShort)
		}
	})

	t.Run("Version", func(t *testing.T) {
		sealed, _ := s.Seal([]byte("payload"), "k")
		sealed[1] = 9

		if _, err := s.Open(sealed, "k"); !errors.Is(err, ErrVersion) {
			t.Fatalf("Open() error = %v, want %v", err, ErrVersion)
		}
	})
}

func TestNewAESGCMFromBase64(t *testing.T) {
	if _, err := NewAESGCMFromBase64(base64.StdEncoding.EncodeToString(testKey())); err != nil {
		t.Fatalf("valid key error = %v", err)
	}
	if _, err := NewAESGCMFromBase64(base64.StdEncoding.EncodeToString([]byte("short"))); !errors.Is(err, ErrKeySize) {
		t.Fatalf("short key error = %v, want %v", err, ErrKeySize)
	}
	if _, err := NewAESGCMFromBase64("%%%"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestPlain(t *testing.T) {
	got, _ := Plain{}.Seal([]byte("x"), "k")
	back, _ := Plain{}.Open(got, "k")
	if string(back) != "x" {
		t.Fatalf("Plain round trip = %q", back)
	}
}
