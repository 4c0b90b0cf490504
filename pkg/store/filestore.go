package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters: N=2^15 keeps open/save under ~100ms while
	// staying expensive enough for an offline attacker
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// ErrBadPassphrase is returned when the store file cannot be decrypted.
var ErrBadPassphrase = errors.New("invalid passphrase")

type storeFile struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"ciphertext"`
}

// FileStore is an encrypted, file-backed KeyValueStore. The whole key
// set is sealed with AES-256-GCM under a scrypt-derived key and
// rewritten on every mutation. Individual writes are durable on
// return, but a sequence of Set calls is not atomic as a group.
type FileStore struct {
	path       string
	passphrase []byte
	data       map[string]string
}

// OpenFileStore loads (or initializes) the encrypted store at path.
func OpenFileStore(path string, passphrase []byte) (*FileStore, error) {
	fs := &FileStore{
		path:       path,
		passphrase: append([]byte(nil), passphrase...),
		data:       make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var sf storeFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(sf.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(sf.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sf.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aead, err := fs.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	defer clear(plaintext)

	if err := json.Unmarshal(plaintext, &fs.data); err != nil {
		return nil, fmt.Errorf("failed to parse store contents: %w", err)
	}
	return fs, nil
}

func (fs *FileStore) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(fs.passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive store key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func (fs *FileStore) save() error {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	plaintext, err := json.Marshal(fs.data)
	if err != nil {
		return fmt.Errorf("failed to marshal store contents: %w", err)
	}
	defer clear(plaintext)

	aead, err := fs.aead(salt)
	if err != nil {
		return err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	sf := storeFile{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}
	raw, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.WriteFile(fs.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}

func (fs *FileStore) Get(key string) (string, bool, error) {
	v, ok := fs.data[key]
	return v, ok, nil
}

func (fs *FileStore) Set(key, value string) error {
	fs.data[key] = value
	return fs.save()
}

func (fs *FileStore) Delete(key string) error {
	if _, ok := fs.data[key]; !ok {
		return nil
	}
	delete(fs.data, key)
	return fs.save()
}
