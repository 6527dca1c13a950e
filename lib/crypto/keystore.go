package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/argon2"
)

const (
	KeystoreName = "keyring.json"
)

var (
	errKeyNotFound     = errors.New("key not found")
	errInvalidPassword = errors.New("invalid password")
)

// Keystore is the wallet's lightweight database of encrypted masternode private keys
type Keystore struct {
	ByPublicKey map[string]*EncryptedPrivateKey `json:"byPublicKey"`
}

// NewKeystoreInMemory() creates a new in memory keystore
func NewKeystoreInMemory() *Keystore {
	return &Keystore{ByPublicKey: make(map[string]*EncryptedPrivateKey)}
}

// NewKeystoreFromFile() creates a new keystore object from a file
func NewKeystoreFromFile(dataDirPath string) (*Keystore, error) {
	path := filepath.Join(dataDirPath, KeystoreName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return NewKeystoreInMemory(), nil
	}
	ksBz, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ks := NewKeystoreInMemory()
	return ks, json.Unmarshal(ksBz, ks)
}

// ImportRaw() imports a non-encrypted private key to the store, but encrypts it given a password
func (ks *Keystore) ImportRaw(privateKeyBytes []byte, password string) (publicKey string, err error) {
	if password == "" {
		return "", errInvalidPassword
	}
	privateKey, err := BytesToSECP256K1Private(privateKeyBytes)
	if err != nil {
		return
	}
	pub := privateKey.PublicKey()
	encrypted, err := EncryptPrivateKey(pub.Bytes(), privateKeyBytes, []byte(password))
	if err != nil {
		return
	}
	publicKey = pub.String()
	ks.ByPublicKey[publicKey] = encrypted
	return
}

// Has() returns true if the keystore holds the private key of the public key
func (ks *Keystore) Has(publicKey []byte) bool {
	_, ok := ks.ByPublicKey[hex.EncodeToString(publicKey)]
	return ok
}

// PublicKeys() lists the hex public keys held by the store in ascending order
func (ks *Keystore) PublicKeys() []string {
	keys := make([]string, 0, len(ks.ByPublicKey))
	for k := range ks.ByPublicKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetKeyGroup() returns the full keygroup for a public key and decrypts the private key using the password
func (ks *Keystore) GetKeyGroup(publicKey []byte, password string) (*KeyGroup, error) {
	v, ok := ks.ByPublicKey[hex.EncodeToString(publicKey)]
	if !ok {
		return nil, errKeyNotFound
	}
	if password == "" {
		return nil, errInvalidPassword
	}
	pk, err := DecryptPrivateKey(v, []byte(password))
	if err != nil {
		return nil, err
	}
	return NewKeyGroup(pk), nil
}

// DeleteKey() removes a private key from the store given a public key
func (ks *Keystore) DeleteKey(publicKey []byte) {
	delete(ks.ByPublicKey, hex.EncodeToString(publicKey))
}

// SaveToFile() persists the keystore to the data directory
func (ks *Keystore) SaveToFile(dataDirPath string) error {
	bz, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDirPath, KeystoreName), bz, 0600)
}

// EncryptedPrivateKey represents an encrypted form of a private key, including the public key,
// salt used in key derivation, and the encrypted private key itself
type EncryptedPrivateKey struct {
	PublicKey string `json:"publicKey"`
	Salt      string `json:"salt"`
	Encrypted string `json:"encrypted"`
}

// EncryptPrivateKey creates an encrypted private key by generating a random salt
// and deriving an encryption key with the KDF, and finally encrypting key using AES-GCM
func EncryptPrivateKey(publicKey, privateKey, password []byte) (*EncryptedPrivateKey, error) {
	// generate random 16 bytes salt
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	// derive an AES-GCM encryption key and nonce using the password and salt
	gcm, nonce, err := kdf(password, salt)
	if err != nil {
		return nil, err
	}
	// encrypt the private key with AES-GCM using the derived key and nonce
	return &EncryptedPrivateKey{
		PublicKey: hex.EncodeToString(publicKey),
		Salt:      hex.EncodeToString(salt),
		Encrypted: hex.EncodeToString(gcm.Seal(nil, nonce, privateKey, nil)),
	}, nil
}

// DecryptPrivateKey takes an EncryptedPrivateKey and decrypts it to a PrivateKeyI interface using the password
func DecryptPrivateKey(epk *EncryptedPrivateKey, password []byte) (pk PrivateKeyI, err error) {
	salt, err := hex.DecodeString(epk.Salt)
	if err != nil {
		return nil, err
	}
	encrypted, err := hex.DecodeString(epk.Encrypted)
	if err != nil {
		return nil, err
	}
	gcm, nonce, err := kdf(password, salt)
	if err != nil {
		return nil, err
	}
	plainText, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, errInvalidPassword
	}
	return BytesToSECP256K1Private(plainText)
}

// kdf derives an AES-GCM encryption key and nonce from a password and salt using Argon2 key derivation
func kdf(password, salt []byte) (gcm cipher.AEAD, nonce []byte, err error) {
	// use Argon2 to derive a 32 byte key from the password and salt
	key := argon2.Key(password, salt, 3, 32*1024, 4, 32)
	// init AES block cipher with the derived key
	block, err := aes.NewCipher(key)
	if err != nil {
		return
	}
	// init AES-GCM mode with the AES cipher block
	if gcm, err = cipher.NewGCM(block); err != nil {
		return
	}
	// return the gcm and the 12 byte nonce
	return gcm, key[:12], nil
}
