package store

import (
	"encoding/hex"
	"sync"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/dmitrijs2005/bookshelf/internal/cryptox"
)

// sealer encrypts token values when a secret is configured and passes them
// through otherwise. Derived keys are cached per salt because argon2id is
// deliberately slow.
type sealer struct {
	secret []byte

	mu   sync.Mutex
	keys map[string][]byte
}

func newSealer(secret string) *sealer {
	if secret == "" {
		return &sealer{}
	}
	return &sealer{secret: []byte(secret), keys: make(map[string][]byte)}
}

func (s *sealer) enabled() bool { return len(s.secret) > 0 }

// salt returns existing unless it is empty, in which case a fresh salt is
// generated. Without a secret there is no salt.
func (s *sealer) salt(existing []byte) []byte {
	if !s.enabled() {
		return nil
	}
	if len(existing) > 0 {
		return existing
	}
	return common.GenerateRandByteArray(cryptox.SaltSize)
}

func (s *sealer) key(salt []byte) []byte {
	id := hex.EncodeToString(salt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[id]; ok {
		return k
	}
	k := cryptox.DeriveKey(s.secret, salt)
	s.keys[id] = k
	return k
}

func (s *sealer) seal(salt []byte, value string) ([]byte, error) {
	if salt == nil || value == "" {
		return []byte(value), nil
	}
	return cryptox.Seal(s.key(salt), []byte(value))
}

func (s *sealer) open(salt, stored []byte) (string, error) {
	if len(salt) == 0 || len(stored) == 0 {
		return string(stored), nil
	}
	if !s.enabled() {
		return "", ErrSecretRequired
	}
	plain, err := cryptox.Open(s.key(salt), stored)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
