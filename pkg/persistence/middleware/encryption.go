package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.DocumentStore
	config EncryptionConfig
}

// ErrSealBroken is returned when a sealed document cannot be opened with any
// configured key, or was sealed for a different document id.
var ErrSealBroken = errors.New("sealed document cannot be opened")

// NewEncryptionMiddleware creates a middleware that encrypts documents using AES-GCM (Envelope Encryption).
// The stored envelope keeps id, title and variant readable for listings; the
// tree and selection only exist inside Sealed. The document id is bound to the
// ciphertext as additional data, so a sealed tree copied under another id
// does not open.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, doc *domain.Document) error {
	plain, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	sealed, err := seal(m.config.ActiveKey, plain, []byte(doc.ID))
	if err != nil {
		return fmt.Errorf("failed to encrypt document: %w", err)
	}

	return m.next.Save(ctx, &domain.Document{
		ID:        doc.ID,
		Title:     doc.Title,
		Variant:   doc.Variant,
		Roots:     []domain.Node{},
		Sealed:    base64.StdEncoding.EncodeToString(sealed),
		UpdatedAt: doc.UpdatedAt,
	})
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (*domain.Document, error) {
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Fail secure: with encryption configured, a plain document is an error.
	if envelope.Sealed == "" {
		return nil, fmt.Errorf("%w: document %s is not sealed", ErrSealBroken, id)
	}
	sealed, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealBroken, err)
	}

	plain, err := m.open(sealed, []byte(id))
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(plain, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted document: %w", err)
	}
	return &doc, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// open tries the active key, then the fallbacks in order.
func (m *encryptionMiddleware) open(sealed, aad []byte) ([]byte, error) {
	keys := append([][]byte{m.config.ActiveKey}, m.config.FallbackKeys...)
	for _, key := range keys {
		gcm, err := newGCM(key)
		if err != nil || len(sealed) < gcm.NonceSize() {
			continue
		}
		nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
		if plain, err := gcm.Open(nil, nonce, ciphertext, aad); err == nil {
			return plain, nil
		}
	}
	return nil, ErrSealBroken
}

// seal returns nonce || ciphertext.
func seal(key, plain, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, aad), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
