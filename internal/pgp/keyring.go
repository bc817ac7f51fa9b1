package pgp

import (
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
)

// Entry describes one imported key.
type Entry struct {
	Fingerprint string
	KeyID       string
	Identities  []string
	Private     bool
}

// Keyring holds imported keys and answers lookup queries. It is a plain
// in-memory collection, not a GnuPG keyring.
type Keyring struct {
	keys    []*crypto.Key
	entries []Entry
}

// NewKeyring returns an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{}
}

// Import adds an armored key to the keyring and returns its entry.
func (r *Keyring) Import(armored string) (Entry, error) {
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to parse key: %w", err)
	}

	entry := Entry{
		Fingerprint: key.GetFingerprint(),
		KeyID:       key.GetHexKeyID(),
		Private:     key.IsPrivate(),
	}
	for _, id := range key.GetEntity().Identities {
		entry.Identities = append(entry.Identities, id.Name)
	}

	r.keys = append(r.keys, key)
	r.entries = append(r.entries, entry)
	return entry, nil
}

// ImportFile reads an armored key from a file and imports it.
func (r *Keyring) ImportFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read key file: %w", err)
	}
	return r.Import(string(data))
}

// Entries lists all imported keys in import order.
func (r *Keyring) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Find returns the entries whose fingerprint, key ID, or any identity
// contains query, case-insensitively.
func (r *Keyring) Find(query string) []Entry {
	query = strings.ToLower(query)
	var out []Entry
	for _, e := range r.entries {
		if matchesEntry(e, query) {
			out = append(out, e)
		}
	}
	return out
}

// Key returns the imported key with the given fingerprint.
func (r *Keyring) Key(fingerprint string) (*crypto.Key, bool) {
	for i, e := range r.entries {
		if strings.EqualFold(e.Fingerprint, fingerprint) {
			return r.keys[i], true
		}
	}
	return nil, false
}

func matchesEntry(e Entry, query string) bool {
	if strings.Contains(strings.ToLower(e.Fingerprint), query) {
		return true
	}
	if strings.Contains(strings.ToLower(e.KeyID), query) {
		return true
	}
	for _, id := range e.Identities {
		if strings.Contains(strings.ToLower(id), query) {
			return true
		}
	}
	return false
}
