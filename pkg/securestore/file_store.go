package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

const (
	storeFileName = "securestore.dat"
	saltSize      = 16
	nonceSize     = 12
)

// FileSecureStore implements SecureStore using an encrypted file.
// The payload is sealed with AES-GCM under a key derived from the
// passphrase with argon2id. A fresh nonce is generated on every save.
type FileSecureStore struct {
	dataDir string
	key     []byte
	salt    []byte
	state   storeState
	mutex   sync.Mutex
}

// storeState is the plaintext structure persisted inside the encrypted file
type storeState struct {
	DeviceID         string       `json:"device_id,omitempty"`
	Credentials      *Credentials `json:"credentials,omitempty"`
	BiometricEnabled *bool        `json:"biometric_enabled,omitempty"`
	LastActivity     *time.Time   `json:"last_activity,omitempty"`
}

// storeEnvelope is the on-disk structure wrapping the sealed payload
type storeEnvelope struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// NewFileSecureStore creates a new file-based secure store
func NewFileSecureStore(dataDir string, options StoreOptions) (*FileSecureStore, error) {
	if options.Passphrase == "" {
		return nil, fmt.Errorf("passphrase required for file secure store")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &FileSecureStore{
		dataDir: dataDir,
	}

	if err := store.load(options.Passphrase); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	return store, nil
}

func (s *FileSecureStore) filePath() string {
	return filepath.Join(s.dataDir, storeFileName)
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
}

// load reads and decrypts the store file, initializing a fresh store
// with a new salt when the file does not exist yet
func (s *FileSecureStore) load(passphrase string) error {
	data, err := os.ReadFile(s.filePath())
	if os.IsNotExist(err) {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return err
		}
		s.salt = salt
		s.key = deriveKey(passphrase, salt)
		s.state = storeState{}
		return nil
	}
	if err != nil {
		return err
	}

	var envelope storeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("corrupt store file: %w", err)
	}

	s.salt = envelope.Salt
	s.key = deriveKey(passphrase, envelope.Salt)

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, envelope.Nonce, envelope.Ciphertext, nil)
	if err != nil {
		return fmt.Errorf("failed to decrypt store: %w", err)
	}

	return json.Unmarshal(plaintext, &s.state)
}

// save encrypts and writes the current state. Caller must hold the mutex.
func (s *FileSecureStore) save() error {
	plaintext, err := json.Marshal(s.state)
	if err != nil {
		return err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	envelope := storeEnvelope{
		Salt:       s.salt,
		Nonce:      nonce,
		Ciphertext: aesgcm.Seal(nil, nonce, plaintext, nil),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath(), data, 0600)
}

// GetDeviceID retrieves the stored device identifier
func (s *FileSecureStore) GetDeviceID(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state.DeviceID == "" {
		return "", ErrKeyNotFound
	}
	return s.state.DeviceID, nil
}

// EnsureDeviceID returns the stored device identifier, creating it on first call
func (s *FileSecureStore) EnsureDeviceID(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state.DeviceID != "" {
		return s.state.DeviceID, nil
	}

	deviceID := uuid.New().String()
	s.state.DeviceID = deviceID
	if err := s.save(); err != nil {
		s.state.DeviceID = ""
		return "", fmt.Errorf("failed to save: %w", err)
	}
	return deviceID, nil
}

// GetCredentials retrieves the stored credential pair
func (s *FileSecureStore) GetCredentials(ctx context.Context) (Credentials, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state.Credentials == nil {
		return Credentials{}, ErrKeyNotFound
	}
	return *s.state.Credentials, nil
}

// SetCredentials stores the credential pair as one unit
func (s *FileSecureStore) SetCredentials(ctx context.Context, creds Credentials) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.state.Credentials
	credsCopy := creds
	s.state.Credentials = &credsCopy
	if err := s.save(); err != nil {
		s.state.Credentials = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// ClearCredentials removes both credentials. The device identifier is retained.
func (s *FileSecureStore) ClearCredentials(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.state.Credentials
	s.state.Credentials = nil
	if err := s.save(); err != nil {
		s.state.Credentials = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// GetBiometricEnabled retrieves the local biometric flag
func (s *FileSecureStore) GetBiometricEnabled(ctx context.Context) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state.BiometricEnabled == nil {
		return false, ErrKeyNotFound
	}
	return *s.state.BiometricEnabled, nil
}

// SetBiometricEnabled stores the local biometric flag
func (s *FileSecureStore) SetBiometricEnabled(ctx context.Context, enabled bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.state.BiometricEnabled
	s.state.BiometricEnabled = &enabled
	if err := s.save(); err != nil {
		s.state.BiometricEnabled = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// ClearBiometricEnabled removes the local biometric flag
func (s *FileSecureStore) ClearBiometricEnabled(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.state.BiometricEnabled
	s.state.BiometricEnabled = nil
	if err := s.save(); err != nil {
		s.state.BiometricEnabled = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// GetLastActivity retrieves the last-activity timestamp
func (s *FileSecureStore) GetLastActivity(ctx context.Context) (time.Time, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state.LastActivity == nil {
		return time.Time{}, ErrKeyNotFound
	}
	return *s.state.LastActivity, nil
}

// SetLastActivity stores the last-activity timestamp
func (s *FileSecureStore) SetLastActivity(ctx context.Context, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.state.LastActivity
	atCopy := at
	s.state.LastActivity = &atCopy
	if err := s.save(); err != nil {
		s.state.LastActivity = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// DeleteAll wipes every key including the device identifier
func (s *FileSecureStore) DeleteAll(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.state
	s.state = storeState{}
	if err := s.save(); err != nil {
		s.state = previous
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}
