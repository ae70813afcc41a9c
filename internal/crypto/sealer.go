package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// Sealer protects tokens at rest.
type Sealer interface {
	Seal(token string) (string, error)
	Open(sealed string) (string, error)
}

// NoopSealer passes tokens through unchanged (dev/test mode).
type NoopSealer struct{}

func (NoopSealer) Seal(token string) (string, error)  { return token, nil }
func (NoopSealer) Open(sealed string) (string, error) { return sealed, nil }

// AESGCMSealer seals tokens with AES-256-GCM. The nonce is prepended
// to the ciphertext and the whole value is hex encoded.
type AESGCMSealer struct {
	gcm cipher.AEAD
}

// NewAESGCMSealer builds a sealer from a 64-character hex key.
func NewAESGCMSealer(hexKey string) (*AESGCMSealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid seal key hex: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMSealer{gcm: gcm}, nil
}

func (s *AESGCMSealer) Seal(token string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.gcm.Seal(nonce, nonce, []byte(token), nil)
	return hex.EncodeToString(sealed), nil
}

func (s *AESGCMSealer) Open(sealed string) (string, error) {
	data, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("invalid sealed token hex: %w", err)
	}

	nonceSize := s.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("sealed token too short")
	}

	token, err := s.gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed token: %w", err)
	}
	return string(token), nil
}
