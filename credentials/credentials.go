// Package credentials provides secure webhook storage for the b24bot CLI.
// It stores portal webhook URLs in ~/.b24bot/webhooks.yaml with encryption
// for the URLs at rest: an inbound webhook embeds a secret and grants full
// task access on the portal.
//
// Encryption Key Storage:
// The encryption key is stored securely using the system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// For CI/testing environments, set B24BOT_ENCRYPTION_KEY to a 64-character
// hex string (32 bytes). When the keyring is unavailable, B24BOT_PASSPHRASE
// selects Argon2id passphrase derivation instead.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	boterrors "github.com/taskbotics/b24bot/pkg/errors"
)

// Webhook storage constants.
const (
	DefaultCredentialsDir  = ".b24bot"
	DefaultCredentialsFile = "webhooks.yaml"
)

// Common errors.
var (
	// ErrNoCredentials is returned when no webhook file exists yet.
	ErrNoCredentials = errors.New("no webhooks stored")
	// ErrInvalidCredentials is returned when the stored file is malformed.
	ErrInvalidCredentials = errors.New("invalid webhooks file format")
	// ErrEncryptionFailed is returned when encryption/decryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
)

// webhookFile is the on-disk layout. Webhook values are AES-GCM encrypted
// and base64 encoded; names stay in the clear so listing needs no key.
type webhookFile struct {
	Webhooks    map[string]string `yaml:"webhooks"`
	LastUpdated time.Time         `yaml:"last_updated"`
}

// Store manages encrypted webhook storage operations.
type Store struct {
	// credentialsDir is the directory containing the webhooks file.
	credentialsDir string
	// encryptionKey is the key used for encrypting/decrypting webhooks.
	encryptionKey []byte
	// keyProvider is the source of the encryption key.
	keyProvider KeyProvider
}

// NewStore creates a webhook store with the default key provider chain.
func NewStore() (*Store, error) {
	keyProvider, err := GetDefaultKeyProvider()
	if err != nil {
		return nil, fmt.Errorf("initializing key provider: %w", err)
	}
	return NewStoreWithKeyProvider(keyProvider)
}

// NewStoreWithKeyProvider creates a webhook store with a custom key provider.
// This is primarily used for testing.
func NewStoreWithKeyProvider(keyProvider KeyProvider) (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("getting credentials directory: %w", err)
	}

	key, err := keyProvider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key: %w", err)
	}

	return &Store{
		credentialsDir: dir,
		encryptionKey:  key,
		keyProvider:    keyProvider,
	}, nil
}

// CredentialsDir returns the credentials directory path.
// Uses $B24BOT_CONFIG_DIR if set, otherwise ~/.b24bot
func CredentialsDir() (string, error) {
	if dir := os.Getenv("B24BOT_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultCredentialsDir), nil
}

// CredentialsPath returns the full path to the webhooks file.
func CredentialsPath() (string, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultCredentialsFile), nil
}

// SaveWebhook stores one webhook under the given user name, replacing any
// previous value for that name.
func (s *Store) SaveWebhook(name, webhook string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", boterrors.ErrMissingField)
	}
	webhook = strings.TrimSpace(webhook)
	if webhook == "" {
		return fmt.Errorf("%w: empty webhook", boterrors.ErrMissingField)
	}
	if !strings.HasSuffix(webhook, "/") {
		webhook += "/"
	}

	file, err := s.load()
	if err != nil && !errors.Is(err, ErrNoCredentials) {
		return err
	}
	if file == nil {
		file = &webhookFile{Webhooks: map[string]string{}}
	}

	encrypted, err := s.encrypt(webhook)
	if err != nil {
		return fmt.Errorf("encrypting webhook: %w", err)
	}
	file.Webhooks[name] = encrypted
	file.LastUpdated = time.Now()

	return s.save(file)
}

// LoadWebhook returns the decrypted webhook stored under name.
func (s *Store) LoadWebhook(name string) (string, error) {
	file, err := s.load()
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return "", fmt.Errorf("name %q: %w", name, boterrors.ErrCredentialNotFound)
		}
		return "", err
	}

	encrypted, ok := file.Webhooks[strings.TrimSpace(name)]
	if !ok {
		return "", fmt.Errorf("name %q: %w", name, boterrors.ErrCredentialNotFound)
	}

	webhook, err := s.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting webhook for %q: %w", name, err)
	}
	return webhook, nil
}

// Names lists the stored user names, sorted.
func (s *Store) Names() ([]string, error) {
	file, err := s.load()
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(file.Webhooks))
	for name := range file.Webhooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteWebhook removes one stored webhook. Removing a missing name is not
// an error.
func (s *Store) DeleteWebhook(name string) error {
	file, err := s.load()
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return nil
		}
		return err
	}

	delete(file.Webhooks, strings.TrimSpace(name))
	file.LastUpdated = time.Now()
	return s.save(file)
}

// Delete removes the whole webhooks file.
func (s *Store) Delete() error {
	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("removing webhooks file: %w", err)
	}
	return nil
}

// Exists checks if the webhooks file exists.
func (s *Store) Exists() bool {
	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) load() (*webhookFile, error) {
	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading webhooks file: %w", err)
	}

	var file webhookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if file.Webhooks == nil {
		file.Webhooks = map[string]string{}
	}
	return &file, nil
}

func (s *Store) save(file *webhookFile) error {
	if err := os.MkdirAll(s.credentialsDir, 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling webhooks: %w", err)
	}

	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing webhooks file: %w", err)
	}
	return nil
}

// encrypt encrypts a string using AES-GCM.
func (s *Store) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrEncryptionFailed, err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts an AES-GCM encrypted string.
func (s *Store) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %v", ErrEncryptionFailed, err)
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}

	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed: %v", ErrEncryptionFailed, err)
	}

	return string(plaintext), nil
}

// MaskWebhook returns a display-safe form of a webhook URL with the secret
// path segment hidden, e.g. "https://x.bitrix24.ru/rest/1/****".
func MaskWebhook(webhook string) string {
	base, rest, found := strings.Cut(webhook, "/rest/")
	if !found {
		if len(webhook) <= 12 {
			return strings.Repeat("*", len(webhook))
		}
		return webhook[:12] + strings.Repeat("*", 8)
	}

	userID, _, hasSecret := strings.Cut(rest, "/")
	if !hasSecret {
		return base + "/rest/****"
	}
	return base + "/rest/" + userID + "/****"
}
