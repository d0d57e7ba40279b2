package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

var newGCM = cipher.NewGCM

// ParseKey accepts a 32-byte key either raw or base64-encoded.
func ParseKey(raw string) ([]byte, error) {
	if raw == "" {
		return nil, errors.New("SECRETS_KEY is required")
	}
	if len(raw) == 32 {
		return []byte(raw), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.New("SECRETS_KEY must be 32 bytes or base64-encoded 32 bytes")
	}
	if len(decoded) != 32 {
		return nil, errors.New("SECRETS_KEY must be 32 bytes or base64-encoded 32 bytes")
	}
	return decoded, nil
}

// ResolveAPIKey returns the credential to use: the plaintext key when set,
// otherwise the encrypted one decrypted with SECRETS_KEY. Both empty yields
// an empty key, which downstream providers treat as unconfigured.
func ResolveAPIKey(plain, encrypted, keyRaw string) (string, error) {
	if plain != "" {
		return plain, nil
	}
	if encrypted == "" {
		return "", nil
	}
	key, err := ParseKey(keyRaw)
	if err != nil {
		return "", err
	}
	return Decrypt(key, encrypted)
}

func Encrypt(key []byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	combined := append(nonce, ciphertext...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

func Decrypt(key []byte, encoded string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(block)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("invalid encrypted secret")
	}
	nonce := data[:gcm.NonceSize()]
	ciphertext := data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
