package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// KeyStore persists the node's ed25519 identity under a data directory,
// encrypted at rest (§6 persistent layout: identity/keypair.key,
// identity/peer_id).
type KeyStore struct {
	dir string
}

// NewKeyStore opens (and creates, if absent) the identity directory.
func NewKeyStore(dir string) (*KeyStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("primitives: keystore dir: %w", err)
	}
	return &KeyStore{dir: dir}, nil
}

func (k *KeyStore) keypairPath() string { return filepath.Join(k.dir, "keypair.key") }
func (k *KeyStore) peerIDPath() string  { return filepath.Join(k.dir, "peer_id") }

// Exists reports whether an identity has already been generated.
func (k *KeyStore) Exists() bool {
	_, err := os.Stat(k.keypairPath())
	return err == nil
}

const (
	argonSaltLen = 16
	aesNonceLen  = 12
)

type storedIdentity struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	PublicKey  []byte `json:"public_key"`
}

func deriveKey(password string, salt []byte) []byte {
	// Argon2id, matching the original implementation's KDF choice.
	return argon2.IDKey([]byte(password), salt, 3, 64*1024, 4, 32)
}

// Generate creates a new identity, encrypts the private key with password,
// and persists both files. Returns the new peer id.
func (k *KeyStore) Generate(password string) (PeerId, error) {
	if k.Exists() {
		return PeerId{}, errors.New("primitives: identity already exists")
	}
	priv, pub, err := GenerateIdentity()
	if err != nil {
		return PeerId{}, err
	}
	if err := k.storeKeypair(priv, pub, password); err != nil {
		return PeerId{}, err
	}
	peerID := PeerIdFromPublicKey(pub)
	if err := os.WriteFile(k.peerIDPath(), peerID[:], 0o600); err != nil {
		return PeerId{}, fmt.Errorf("primitives: write peer_id: %w", err)
	}
	return peerID, nil
}

func (k *KeyStore) storeKeypair(priv PrivateKey, pub PublicKey, password string) error {
	salt := make([]byte, argonSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("primitives: salt: %w", err)
	}
	key := deriveKey(password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("primitives: aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("primitives: gcm: %w", err)
	}
	nonce := make([]byte, aesNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("primitives: nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, priv, nil)

	blob := storedIdentity{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		PublicKey:  pub,
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("primitives: marshal identity: %w", err)
	}
	return os.WriteFile(k.keypairPath(), raw, 0o600)
}

// Load decrypts and returns the stored identity.
func (k *KeyStore) Load(password string) (PrivateKey, PublicKey, error) {
	raw, err := os.ReadFile(k.keypairPath())
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: read keypair: %w", err)
	}
	var blob storedIdentity
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, nil, fmt.Errorf("primitives: unmarshal identity: %w", err)
	}
	key := deriveKey(password, blob.Salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: gcm: %w", err)
	}
	plain, err := gcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, nil, errors.New("primitives: incorrect password or corrupt identity")
	}
	priv := PrivateKey(ed25519.PrivateKey(plain))
	pub := PublicKey(blob.PublicKey)
	return priv, pub, nil
}

// LoadPeerID reads the plaintext peer_id file for quick lookup without
// decrypting the private key.
func (k *KeyStore) LoadPeerID() (PeerId, error) {
	raw, err := os.ReadFile(k.peerIDPath())
	if err != nil {
		return PeerId{}, fmt.Errorf("primitives: read peer_id: %w", err)
	}
	return PeerIdFromBytes(raw)
}
