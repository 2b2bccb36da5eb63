package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32
	iterations = 100_000
)

// Cipher encrypts and decrypts short secrets (the user's model API key)
// with a key derived from a process-wide passphrase. The output embeds the
// per-message salt and nonce, so ciphertexts are self-contained strings.
type Cipher struct {
	passphrase string
}

// New builds a Cipher from an explicit passphrase. The passphrase comes
// from configuration; it is never read from ambient globals here.
func New(passphrase string) *Cipher {
	return &Cipher{passphrase: passphrase}
}

// Encrypt returns base64(salt || nonce || sealed) for non-empty input and
// "" for empty input.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	buf := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = append(buf, sealed...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decrypt is the inverse of Encrypt. Any failure (bad encoding, truncated
// input, wrong passphrase, tampering) yields "" rather than an error:
// callers treat "" as "no usable key". Decrypt("") is "".
func (c *Cipher) Decrypt(ciphertext string) string {
	ciphertext = strings.TrimSpace(ciphertext)
	if ciphertext == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return ""
	}
	if len(raw) < saltSize {
		return ""
	}
	salt, rest := raw[:saltSize], raw[saltSize:]
	aead, err := c.aead(salt)
	if err != nil {
		return ""
	}
	if len(rest) < aead.NonceSize() {
		return ""
	}
	nonce, sealed := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return ""
	}
	return string(plaintext)
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(c.passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
