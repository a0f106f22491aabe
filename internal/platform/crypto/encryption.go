package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrNotConfigured = errors.New("encryption key not configured")
	ErrMalformed     = errors.New("ciphertext is malformed")
)

// sealed documents start with this marker so they can be told apart from plain PDFs.
var header = []byte("HPv1")

const keyInfo = "hospitalpay payslip encryption"

// Service seals documents with AES-256-GCM. A zero-value key leaves it unconfigured.
type Service struct {
	key []byte
}

// New accepts a 32-byte key as hex or base64. Any other non-empty value is
// treated as a passphrase and stretched with HKDF-SHA256.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	decoded, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	return &Service{key: decoded}, nil
}

func (s *Service) Configured() bool {
	return s != nil && len(s.key) == 32
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(header)+len(nonce)+len(plain)+gcm.Overhead())
	out = append(out, header...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plain, header), nil
}

func (s *Service) Decrypt(sealed []byte) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if !bytes.HasPrefix(sealed, header) {
		return nil, ErrMalformed
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	body := sealed[len(header):]
	if len(body) < gcm.NonceSize()+gcm.Overhead() {
		return nil, ErrMalformed
	}
	nonce, data := body[:gcm.NonceSize()], body[gcm.NonceSize():]
	return gcm.Open(nil, nonce, data, header)
}

func (s *Service) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func decodeKey(raw string) ([]byte, error) {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(raw); err == nil && len(decoded) == 32 {
			return decoded, nil
		}
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(raw), nil, []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}
