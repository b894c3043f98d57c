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

	"github.com/seranno/wayfarer/pkg/domain"
	"github.com/seranno/wayfarer/pkg/ports"
)

// envelopeStory marks a stored collection as an encryption envelope. A
// reader's real collection is serialized, sealed, and stored as a single
// opaque record under this story so the backing store never sees which
// stories or pages a reader walked.
const envelopeStory domain.StoryID = "__encrypted__"

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
	next   ports.HistoryStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals each reader's
// collection with AES-GCM before it reaches the backing store.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, readerID string, histories []domain.History) error {
	plainText, err := json.Marshal(histories)
	if err != nil {
		return fmt.Errorf("failed to marshal histories: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt histories: %w", err)
	}

	// The envelope rides through the store as an ordinary one-record
	// collection; the ciphertext travels in the single page slot.
	envelope := []domain.History{{
		ID:    "envelope",
		Story: envelopeStory,
		Pages: []domain.PageID{domain.PageID(base64.StdEncoding.EncodeToString(ciphertext))},
	}}

	return m.next.Save(ctx, readerID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, readerID string) ([]domain.History, error) {
	stored, err := m.next.Load(ctx, readerID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}

	// Fail secure: once encryption is configured, anything that is not an
	// envelope is rejected rather than passed through.
	if len(stored) != 1 || stored[0].Story != envelopeStory || len(stored[0].Pages) != 1 {
		return nil, errors.New("stored collection is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(string(stored[0].Pages[0]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt histories: %w", err)
	}

	var histories []domain.History
	if err := json.Unmarshal(plainText, &histories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted histories: %w", err)
	}

	return histories, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, readerID string) error {
	return m.next.Delete(ctx, readerID)
}

func (m *encryptionMiddleware) Readers(ctx context.Context) ([]string, error) {
	return m.next.Readers(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
