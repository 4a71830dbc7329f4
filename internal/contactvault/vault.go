// Package contactvault seals remembered contact details so they can be kept
// on the client side without being readable or forgeable there.
package contactvault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// DefaultTTL is how long a remembered contact stays valid.
const DefaultTTL = 30 * 24 * time.Hour

var additionalData = []byte("contact-v1")

var (
	ErrCorrupt = errors.New("contactvault: corrupt or foreign value")
	ErrExpired = errors.New("contactvault: value expired")
)

// Contact is the remembered customer block.
type Contact struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store holds one sealed value on behalf of a client.
type Store interface {
	Load() (string, bool)
	Save(value string, expires time.Time)
	Clear()
}

// Vault seals contacts with XChaCha20-Poly1305.
type Vault struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// New returns a Vault for a 32-byte key.
func New(key []byte, ttl time.Duration) (*Vault, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("contactvault: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Vault{key: append([]byte(nil), key...), ttl: ttl, now: time.Now}, nil
}

// NewKey returns a random key.
func NewKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("contactvault: generate key: %w", err)
	}
	return key, nil
}

// ParseKey decodes a base64 (standard or URL alphabet) key.
func ParseKey(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if key, err := enc.DecodeString(s); err == nil {
			return key, nil
		}
	}
	return nil, errors.New("contactvault: key is not valid base64")
}

// Seal stamps c with an expiry and encrypts it.
func (v *Vault) Seal(c Contact) (string, error) {
	c.ExpiresAt = v.now().Add(v.ttl).UTC()
	plain, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("contactvault: encode: %w", err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("contactvault: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, additionalData)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed value and checks its expiry.
func (v *Vault) Open(s string) (Contact, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Contact{}, ErrCorrupt
	}
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return Contact{}, err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return Contact{}, ErrCorrupt
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, additionalData)
	if err != nil {
		return Contact{}, ErrCorrupt
	}

	var c Contact
	if err := json.Unmarshal(plain, &c); err != nil {
		return Contact{}, ErrCorrupt
	}
	if !v.now().Before(c.ExpiresAt) {
		return Contact{}, ErrExpired
	}
	return c, nil
}

// Remember seals c into store.
func (v *Vault) Remember(store Store, c Contact) error {
	sealed, err := v.Seal(c)
	if err != nil {
		return err
	}
	store.Save(sealed, v.now().Add(v.ttl))
	return nil
}

// Recall reads the remembered contact from store. Any failure clears the
// stored value and reports false.
func (v *Vault) Recall(store Store) (Contact, bool) {
	s, ok := store.Load()
	if !ok || s == "" {
		return Contact{}, false
	}
	c, err := v.Open(s)
	if err != nil {
		store.Clear()
		return Contact{}, false
	}
	return c, true
}
