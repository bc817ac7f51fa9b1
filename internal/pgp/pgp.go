// Package pgp wraps gopenpgp for the handful of OpenPGP operations data
// deliveries need: key generation, multi-recipient encryption of payloads,
// and decryption with a locked private key. Key material and passphrases can
// come from the environment so automated jobs never touch key files.
package pgp

import (
	"fmt"
	"os"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
)

// Environment variables consulted when key material is not passed explicitly.
const (
	EnvPassphrase = "PGP_PASSPHRASE"
	EnvPrivateKey = "PGP_PRIVATE_KEY"
)

// GenerateKey creates a new key pair for the given identity and returns the
// private key, locked with passphrase, in armored form. An empty passphrase
// leaves the key unlocked.
func GenerateKey(name, email string, passphrase []byte) (string, error) {
	handle := crypto.PGP()

	key, err := handle.KeyGeneration().AddUserId(name, email).New().GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	defer key.ClearPrivateParams()

	if len(passphrase) > 0 {
		locked, err := handle.LockKey(key, passphrase)
		if err != nil {
			return "", fmt.Errorf("failed to lock key: %w", err)
		}
		return locked.Armor()
	}
	return key.Armor()
}

// PublicKey extracts the armored public key from an armored key.
func PublicKey(armored string) (string, error) {
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil {
		return "", fmt.Errorf("failed to parse key: %w", err)
	}
	defer key.ClearPrivateParams()

	pub, err := key.GetArmoredPublicKey()
	if err != nil {
		return "", fmt.Errorf("failed to extract public key: %w", err)
	}
	return pub, nil
}

// Encrypt encrypts message for every recipient public key (armored) and
// returns the armored ciphertext.
func Encrypt(message []byte, recipients ...string) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients given")
	}

	ring, err := crypto.NewKeyRing(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build keyring: %w", err)
	}
	for _, armored := range recipients {
		key, err := crypto.NewKeyFromArmored(armored)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recipient key: %w", err)
		}
		if err := ring.AddKey(key); err != nil {
			return nil, fmt.Errorf("failed to add recipient key: %w", err)
		}
	}

	enc, err := crypto.PGP().Encryption().Recipients(ring).New()
	if err != nil {
		return nil, fmt.Errorf("failed to build encryptor: %w", err)
	}
	msg, err := enc.Encrypt(message)
	if err != nil {
		return nil, fmt.Errorf("encryption failed: %w", err)
	}
	return msg.ArmorBytes()
}

// Decrypt decrypts an armored message with the given armored private key,
// unlocking it with passphrase when the key is locked.
func Decrypt(armored []byte, privateKey string, passphrase []byte) ([]byte, error) {
	key, err := crypto.NewPrivateKeyFromArmored(privateKey, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock private key: %w", err)
	}
	defer key.ClearPrivateParams()

	dec, err := crypto.PGP().Decryption().DecryptionKey(key).New()
	if err != nil {
		return nil, fmt.Errorf("failed to build decryptor: %w", err)
	}
	result, err := dec.Decrypt(armored, crypto.Armor)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return result.Bytes(), nil
}

// DecryptFromEnv decrypts an armored message using key material from
// PGP_PRIVATE_KEY and PGP_PASSPHRASE.
func DecryptFromEnv(armored []byte) ([]byte, error) {
	privateKey := os.Getenv(EnvPrivateKey)
	if privateKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set", EnvPrivateKey)
	}
	return Decrypt(armored, privateKey, []byte(os.Getenv(EnvPassphrase)))
}
