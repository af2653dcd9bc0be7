// Package keystore defines the credential contract between the
// pipeline and the host application's secret storage. Absence of a
// secret is a first-class, expected state.
package keystore

import (
	"os"
	"strings"
	"sync"

	"github.com/audiobash/voicepipe/pkg/model"
)

// Store is the get/set contract the pipeline needs. Implementations
// must be safe for concurrent use.
type Store interface {
	Get(family model.ProviderFamily) (string, bool)
	Set(family model.ProviderFamily, secret string)
}

// envVarByFamily names the environment variable each family's secret
// is read from by the env-backed store.
var envVarByFamily = map[model.ProviderFamily]string{
	model.FamilyOpenAI:   "OPENAI_API_KEY",
	model.FamilyDeepgram: "DEEPGRAM_API_KEY",
	model.FamilyGemini:   "GEMINI_KEY",
	// Bedrock auth is resolved by the AWS SDK credential chain; the
	// access key only serves as the presence check.
	model.FamilyBedrock: "AWS_ACCESS_KEY_ID",
}

// EnvStore reads secrets from process environment variables. Set is a
// no-op: the environment is not a writable secret store.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func (s *EnvStore) Get(family model.ProviderFamily) (string, bool) {
	name, ok := envVarByFamily[family]
	if !ok {
		return "", false
	}
	secret := strings.TrimSpace(os.Getenv(name))
	if secret == "" {
		return "", false
	}
	return secret, true
}

func (s *EnvStore) Set(model.ProviderFamily, string) {}

// MemoryStore holds secrets in memory with replace-on-write semantics.
// Used by tests and by settings-backed deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[model.ProviderFamily]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[model.ProviderFamily]string)}
}

func (s *MemoryStore) Get(family model.ProviderFamily) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[family]
	if !ok || strings.TrimSpace(secret) == "" {
		return "", false
	}
	return secret, true
}

func (s *MemoryStore) Set(family model.ProviderFamily, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[family] = secret
}

// Chain consults stores in order and returns the first hit. Writes go
// to the first store.
type Chain []Store

func (c Chain) Get(family model.ProviderFamily) (string, bool) {
	for _, store := range c {
		if secret, ok := store.Get(family); ok {
			return secret, true
		}
	}
	return "", false
}

func (c Chain) Set(family model.ProviderFamily, secret string) {
	if len(c) == 0 {
		return
	}
	c[0].Set(family, secret)
}
