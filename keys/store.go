package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is the node's local seed storage.
//
// Layout under Directory:
//
//	<name>/root.key               hex-encoded root seed, mode 0600
//	<name>/purposes/<purpose>.key derived purpose seeds
//
// Multiple named identities can coexist; a render node normally has one.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name     string
	Purposes []string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".lumen", "keys"), nil
}

func OpenStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) purposeKeyPath(name, purpose string) string {
	return filepath.Join(ks.Directory, name, "purposes", purpose+".key")
}

func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("key name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in key name", char)
	}
	return nil
}

func CheckPurpose(purpose string) error {
	if purpose == "" {
		return errors.New("purpose cannot be empty")
	}
	for _, char := range purpose {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in purpose", char)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// InitRootKey stores a root seed under name and returns the node key string.
func (ks *KeyStore) InitRootKey(name string, seed []byte, overwrite bool) (nodeKey string, path string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	path = ks.rootKeyPath(name)
	if err := ks.saveSeed(path, seed, overwrite); err != nil {
		return "", "", err
	}
	return NodeKeyFromSeed(seed), path, nil
}

// DeriveForPurpose derives and stores a purpose seed from the named root key.
func (ks *KeyStore) DeriveForPurpose(name, purpose string, overwrite bool) (nodeKey string, path string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	if err := CheckPurpose(purpose); err != nil {
		return "", "", err
	}
	rootSeed, err := ks.loadSeed(ks.rootKeyPath(name))
	if err != nil {
		return "", "", err
	}
	purposeSeed, err := DerivePurposeSeed(rootSeed, purpose)
	if err != nil {
		return "", "", err
	}
	path = ks.purposeKeyPath(name, purpose)
	if err := ks.saveSeed(path, purposeSeed, overwrite); err != nil {
		return "", "", err
	}
	return NodeKeyFromSeed(purposeSeed), path, nil
}

// ExportNodeKey returns the public node key string for a stored seed.
// An empty purpose exports the root identity.
func (ks *KeyStore) ExportNodeKey(name, purpose string) (string, error) {
	if err := CheckKeyName(name); err != nil {
		return "", err
	}
	var seed []byte
	var err error
	if purpose == "" {
		seed, err = ks.loadSeed(ks.rootKeyPath(name))
	} else {
		if err := CheckPurpose(purpose); err != nil {
			return "", err
		}
		seed, err = ks.loadSeed(ks.purposeKeyPath(name, purpose))
	}
	if err != nil {
		return "", err
	}
	return NodeKeyFromSeed(seed), nil
}

// LoadSeed resolves a signing seed from, in priority order: an inline hex
// seed, an explicit key file, or a stored name/purpose pair.
func (ks *KeyStore) LoadSeed(seedHex, name, purpose, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeed(keyFile)
	}
	if name != "" {
		if err := CheckKeyName(name); err != nil {
			return nil, err
		}
		if purpose == "" {
			return ks.loadSeed(ks.rootKeyPath(name))
		}
		if err := CheckPurpose(purpose); err != nil {
			return nil, err
		}
		return ks.loadSeed(ks.purposeKeyPath(name, purpose))
	}
	return nil, errors.New("no signing key provided")
}

// List returns stored identities with their derived purposes, sorted.
func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		purposesDir := filepath.Join(ks.Directory, name, "purposes")
		purposeEntries, perr := os.ReadDir(purposesDir)
		var purposes []string
		if perr == nil {
			for _, pe := range purposeEntries {
				if pe.IsDir() {
					continue
				}
				if strings.HasSuffix(pe.Name(), ".key") {
					purposes = append(purposes, strings.TrimSuffix(pe.Name(), ".key"))
				}
			}
			sort.Strings(purposes)
		}
		result = append(result, KeyEntry{Name: name, Purposes: purposes})
	}
	return result, nil
}
