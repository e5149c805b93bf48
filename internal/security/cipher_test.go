package security

import (
	"errors"
	"testing"
)

func newTestCipher(t *testing.T) *FieldCipher {
	t.Helper()
	c, err := NewFieldCipher("unit-test-secret")
	if err != nil {
		t.Fatalf("NewFieldCipher returned error: %v", err)
	}
	return c
}

func TestNewFieldCipher_RejectsEmptySecret(t *testing.T) {
	if _, err := NewFieldCipher("   "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{"", "x", "1234567890", "routing-021000021", "ünïcode-値"} {
		value := plaintext
		encrypted, err := c.Encrypt(&value)
		if err != nil {
			t.Fatalf("Encrypt(%q) returned error: %v", plaintext, err)
		}
		if encrypted == nil || *encrypted == plaintext {
			t.Fatalf("Encrypt(%q) did not produce ciphertext", plaintext)
		}

		decrypted, err := c.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt returned error: %v", err)
		}
		if decrypted == nil || *decrypted != plaintext {
			t.Fatalf("round trip mismatch: want %q, got %v", plaintext, decrypted)
		}
	}
}

func TestEncryptDecrypt_NilPassesThrough(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.Encrypt(nil)
	if err != nil || encrypted != nil {
		t.Fatalf("Encrypt(nil) = (%v, %v), want (nil, nil)", encrypted, err)
	}
	decrypted, err := c.Decrypt(nil)
	if err != nil || decrypted != nil {
		t.Fatalf("Decrypt(nil) = (%v, %v), want (nil, nil)", decrypted, err)
	}
	masked, err := c.Mask(nil)
	if err != nil || masked != nil {
		t.Fatalf("Mask(nil) = (%v, %v), want (nil, nil)", masked, err)
	}
}

func TestDecrypt_RejectsGarbage(t *testing.T) {
	c := newTestCipher(t)

	garbage := "not-base64!!"
	if _, err := c.Decrypt(&garbage); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext, got %v", err)
	}

	short := "QUJD" // base64 "ABC", shorter than a nonce
	if _, err := c.Decrypt(&short); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext for short input, got %v", err)
	}
}

func TestDecrypt_RejectsWrongKey(t *testing.T) {
	c := newTestCipher(t)
	other, err := NewFieldCipher("a-different-secret")
	if err != nil {
		t.Fatalf("NewFieldCipher returned error: %v", err)
	}

	value := "1234567890"
	encrypted, err := c.Encrypt(&value)
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if _, err := other.Decrypt(encrypted); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext with wrong key, got %v", err)
	}
}

func TestMask(t *testing.T) {
	c := newTestCipher(t)

	tests := []struct {
		name      string
		plaintext string
		want      string
	}{
		{name: "ten digit account number", plaintext: "1234567890", want: "****7890"},
		{name: "exactly four characters", plaintext: "7890", want: "****7890"},
		{name: "three characters returned unmasked", plaintext: "789", want: "789"},
		{name: "empty string returned unmasked", plaintext: "", want: ""},
		{name: "three multibyte characters returned unmasked", plaintext: "åäö", want: "åäö"},
		{name: "multibyte suffix kept whole", plaintext: "1234ありがとう", want: "****りがとう"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := tt.plaintext
			encrypted, err := c.Encrypt(&value)
			if err != nil {
				t.Fatalf("Encrypt returned error: %v", err)
			}
			masked, err := c.Mask(encrypted)
			if err != nil {
				t.Fatalf("Mask returned error: %v", err)
			}
			if masked == nil || *masked != tt.want {
				t.Fatalf("Mask(%q) = %v, want %q", tt.plaintext, masked, tt.want)
			}
		})
	}
}
