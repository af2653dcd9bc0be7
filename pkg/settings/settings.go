// Package settings loads and persists the user configuration the
// pipeline reads once per request: custom instructions, the vocabulary
// table, the selected model and the per-call timeout. Storage is a
// viper-managed file; the pipeline itself only ever sees an immutable
// snapshot.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/audiobash/voicepipe/pkg/keystore"
	"github.com/audiobash/voicepipe/pkg/model"
)

const (
	defaultModel          = string(model.ModelWhisperFast)
	defaultFallbackModel  = string(model.ModelGeminiFlash)
	defaultTimeoutSeconds = 30
)

// Settings is the durable user configuration.
type Settings struct {
	Model              string            `mapstructure:"model"`
	AgentFallbackModel string            `mapstructure:"agent_fallback_model"`
	TimeoutSeconds     int               `mapstructure:"timeout_seconds"`
	RawInstructions    string            `mapstructure:"raw_instructions"`
	AgentInstructions  string            `mapstructure:"agent_instructions"`
	Vocabulary         []map[string]any  `mapstructure:"vocabulary"`
	Keys               map[string]string `mapstructure:"keys"`
}

// Load reads settings from the given file. A missing file yields
// defaults rather than an error: first run has no settings yet.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// With SetConfigFile a missing file surfaces as *fs.PathError,
		// not viper.ConfigFileNotFoundError.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("settings: read %s: %w", path, err)
		}
	}

	out := &Settings{}
	if err := v.Unmarshal(out); err != nil {
		return nil, fmt.Errorf("settings: decode %s: %w", path, err)
	}
	return out, nil
}

// Save writes the settings back to the given file, replacing its
// contents wholesale.
func Save(path string, s *Settings) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.Set("model", s.Model)
	v.Set("agent_fallback_model", s.AgentFallbackModel)
	v.Set("timeout_seconds", s.TimeoutSeconds)
	v.Set("raw_instructions", s.RawInstructions)
	v.Set("agent_instructions", s.AgentInstructions)
	v.Set("vocabulary", s.Vocabulary)
	v.Set("keys", s.Keys)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("settings: write %s: %w", path, err)
	}
	return nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("model", defaultModel)
	v.SetDefault("agent_fallback_model", defaultFallbackModel)
	v.SetDefault("timeout_seconds", defaultTimeoutSeconds)
}

// Instructions converts the stored form into the per-request snapshot.
func (s *Settings) Instructions() model.CustomInstructions {
	return model.CustomInstructions{
		RawModeInstructions:   s.RawInstructions,
		AgentModeInstructions: s.AgentInstructions,
		Vocabulary:            decodeVocabulary(s.Vocabulary),
	}
}

// SelectedModel returns the configured model identifier, falling back
// to the default when unset.
func (s *Settings) SelectedModel() model.ModelIdentifier {
	name := strings.TrimSpace(s.Model)
	if name == "" {
		name = defaultModel
	}
	return model.ModelIdentifier(name)
}

// FallbackModel returns the agent-capable identifier used as stage two
// of the agent fallback.
func (s *Settings) FallbackModel() model.ModelIdentifier {
	name := strings.TrimSpace(s.AgentFallbackModel)
	if name == "" {
		name = defaultFallbackModel
	}
	return model.ModelIdentifier(name)
}

// Timeout bounds each provider call.
func (s *Settings) Timeout() time.Duration {
	seconds := s.TimeoutSeconds
	if seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// Keystore builds an in-memory credential store from the stored keys.
func (s *Settings) Keystore() keystore.Store {
	store := keystore.NewMemoryStore()
	for family, secret := range s.Keys {
		store.Set(model.ProviderFamily(family), secret)
	}
	return store
}

// decodeVocabulary tolerates the free-form shape settings files arrive
// in (string keys of any casing) and drops malformed rows.
func decodeVocabulary(rows []map[string]any) model.VocabularyTable {
	if len(rows) == 0 {
		return nil
	}

	table := make(model.VocabularyTable, 0, len(rows))
	for _, row := range rows {
		entry := model.VocabularyEntry{}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &entry,
			WeaklyTypedInput: true,
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		})
		if err != nil {
			continue
		}
		if err := decoder.Decode(row); err != nil {
			continue
		}
		if strings.TrimSpace(entry.Spoken) == "" {
			continue
		}
		table = append(table, entry)
	}
	if len(table) == 0 {
		return nil
	}
	return table
}
