package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	fileName       = "credentials.json"
	saltSize       = 16
	pbkdf2Iters    = 100000
	pbkdf2KeyBytes = 32
)

// File is an encrypted on-disk credential store. Values are kept AES-GCM
// encrypted under a key derived from the passphrase; the whole file is
// loaded once and served from memory afterwards.
type File struct {
	path       string
	passphrase string

	mu     sync.RWMutex
	values map[string]string
}

type fileEnvelope struct {
	Salt   string `json:"salt"`
	Nonce  string `json:"nonce"`
	Sealed string `json:"sealed"`
}

// NewFile opens (or initializes) the credential file under dir. An absent
// file is not an error; the store is simply empty.
func NewFile(dir, passphrase string) (*File, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	f := &File{
		path:       filepath.Join(dir, fileName),
		passphrase: passphrase,
		values:     make(map[string]string),
	}

	if err := f.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return f, nil
}

func (f *File) Get(name string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[name]
}

func (f *File) Has(name string) bool {
	return f.Get(name) != ""
}

// Set stores a credential and persists the file.
func (f *File) Set(name, value string) error {
	f.mu.Lock()
	f.values[name] = value
	f.mu.Unlock()
	return f.save()
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("corrupt credentials file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return fmt.Errorf("corrupt credentials salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return fmt.Errorf("corrupt credentials nonce: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Sealed)
	if err != nil {
		return fmt.Errorf("corrupt credentials payload: %w", err)
	}

	gcm, err := f.cipher(salt)
	if err != nil {
		return err
	}

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return fmt.Errorf("failed to decrypt credentials (wrong passphrase?): %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return json.Unmarshal(plain, &f.values)
}

func (f *File) save() error {
	f.mu.RLock()
	plain, err := json.Marshal(f.values)
	f.mu.RUnlock()
	if err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := f.cipher(salt)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	env := fileEnvelope{
		Salt:   base64.StdEncoding.EncodeToString(salt),
		Nonce:  base64.StdEncoding.EncodeToString(nonce),
		Sealed: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plain, nil)),
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

func (f *File) cipher(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(f.passphrase), salt, pbkdf2Iters, pbkdf2KeyBytes, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
