package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func newSealer(t *testing.T, secret string) *Sealer {
	t.Helper()
	s, err := NewSealer(secret)
	if err != nil {
		t.Fatalf("NewSealer error: %v", err)
	}
	return s
}

func TestSealOpen_Roundtrip(t *testing.T) {
	s := newSealer(t, "storage-secret")
	original := []byte("%PDF-1.7 årsrapport")

	sealed, err := s.Seal(original)
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	if !bytes.Equal(opened, original) {
		t.Errorf("roundtrip failed: got %q, want %q", opened, original)
	}
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer("")
	if !errors.Is(err, ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
}

func TestSealOpen_Empty(t *testing.T) {
	s := newSealer(t, "k")
	sealed, err := s.Seal(nil)
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	if len(sealed) != 0 {
		t.Errorf("expected empty output for empty input, got %d bytes", len(sealed))
	}

	opened, err := s.Open(nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if len(opened) != 0 {
		t.Errorf("expected empty output for empty input, got %q", opened)
	}
}

func TestSeal_OutputDiffersFromInput(t *testing.T) {
	s := newSealer(t, "k")
	original := []byte("PK\x03\x04 docx body")
	sealed, _ := s.Seal(original)
	if bytes.Contains(sealed, original) {
		t.Error("sealed output should not contain the plaintext")
	}
}

func TestSeal_DifferentCiphertextEachTime(t *testing.T) {
	// AES-GCM uses a random nonce, so same plaintext → different ciphertext
	s := newSealer(t, "k")
	original := []byte("same bytes")
	enc1, _ := s.Seal(original)
	enc2, _ := s.Seal(original)

	if bytes.Equal(enc1, enc2) {
		t.Error("two seals of the same plaintext should differ (random nonce)")
	}

	dec1, _ := s.Open(enc1)
	dec2, _ := s.Open(enc2)
	if !bytes.Equal(dec1, original) || !bytes.Equal(dec2, original) {
		t.Errorf("open mismatch: dec1=%q, dec2=%q", dec1, dec2)
	}
}

func TestOpen_WrongSecret(t *testing.T) {
	sealed, _ := newSealer(t, "right").Seal([]byte("hemmelig"))
	if _, err := newSealer(t, "wrong").Open(sealed); err == nil {
		t.Error("expected error when opening with a different secret")
	}
}

func TestOpen_TooShort(t *testing.T) {
	if _, err := newSealer(t, "k").Open([]byte("abc")); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestOpen_Tampered(t *testing.T) {
	s := newSealer(t, "k")
	sealed, _ := s.Seal([]byte("original"))
	sealed[len(sealed)-1] ^= 0xFF
	if _, err := s.Open(sealed); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestSealOpen_LargeBlob(t *testing.T) {
	s := newSealer(t, "k")
	original := bytes.Repeat([]byte("A"), 1<<20)
	sealed, err := s.Seal(original)
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if !bytes.Equal(opened, original) {
		t.Errorf("roundtrip failed for large blob (len %d)", len(original))
	}
}
