package keystore

import (
	"testing"

	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/stretchr/testify/suite"
)

type KeystoreSuite struct {
	suite.Suite
}

func TestKeystoreSuite(t *testing.T) {
	suite.Run(t, new(KeystoreSuite))
}

func (s *KeystoreSuite) TestMemoryStoreRoundTrip() {
	store := NewMemoryStore()

	_, ok := store.Get(model.FamilyOpenAI)
	s.False(ok)

	store.Set(model.FamilyOpenAI, "sk-test")
	secret, ok := store.Get(model.FamilyOpenAI)
	s.True(ok)
	s.Equal("sk-test", secret)
}

func (s *KeystoreSuite) TestMemoryStoreBlankSecretReadsAsAbsent() {
	store := NewMemoryStore()
	store.Set(model.FamilyGemini, "   ")

	_, ok := store.Get(model.FamilyGemini)
	s.False(ok)
}

func (s *KeystoreSuite) TestEnvStoreReadsFamilyVariable() {
	s.T().Setenv("DEEPGRAM_API_KEY", "dg-token")

	store := NewEnvStore()
	secret, ok := store.Get(model.FamilyDeepgram)
	s.True(ok)
	s.Equal("dg-token", secret)
}

func (s *KeystoreSuite) TestEnvStoreUnknownFamilyIsAbsent() {
	store := NewEnvStore()
	_, ok := store.Get(model.FamilyLocal)
	s.False(ok)
}

func (s *KeystoreSuite) TestChainPrefersEarlierStores() {
	primary := NewMemoryStore()
	secondary := NewMemoryStore()
	secondary.Set(model.FamilyOpenAI, "from-secondary")

	chain := Chain{primary, secondary}
	secret, ok := chain.Get(model.FamilyOpenAI)
	s.True(ok)
	s.Equal("from-secondary", secret)

	primary.Set(model.FamilyOpenAI, "from-primary")
	secret, _ = chain.Get(model.FamilyOpenAI)
	s.Equal("from-primary", secret)

	chain.Set(model.FamilyGemini, "written")
	fromPrimary, ok := primary.Get(model.FamilyGemini)
	s.True(ok)
	s.Equal("written", fromPrimary)
}
