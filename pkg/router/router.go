// Package router maps model identifiers onto provider-family call
// strategies. The identifier table is closed: adding an identifier to
// an existing family requires no new call logic, and every identifier
// carries a fixed capability set.
package router

import (
	"context"
	"fmt"

	"github.com/audiobash/voicepipe/pkg/keystore"
	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/audiobash/voicepipe/pkg/speech/bedrock"
	"github.com/audiobash/voicepipe/pkg/speech/deepgram"
	"github.com/audiobash/voicepipe/pkg/speech/gemini"
	"github.com/audiobash/voicepipe/pkg/speech/local"
	"github.com/audiobash/voicepipe/pkg/speech/ollama"
	"github.com/audiobash/voicepipe/pkg/speech/openai"
)

// FamilySpec is the resolved routing entry for one model identifier.
type FamilySpec struct {
	Family model.ProviderFamily
	// ModelName is the provider-native model name.
	ModelName string
	// SupportsAudio marks families that accept an audio payload.
	SupportsAudio bool
	// SupportsAgent marks families that can produce a command.
	SupportsAgent bool
	// RequiresCredential gates the pre-call credential check.
	RequiresCredential bool
}

var modelTable = map[model.ModelIdentifier]FamilySpec{
	model.ModelWhisperFast: {
		Family:             model.FamilyOpenAI,
		ModelName:          "whisper-1",
		SupportsAudio:      true,
		RequiresCredential: true,
	},
	model.ModelWhisperLarge: {
		Family:             model.FamilyOpenAI,
		ModelName:          "gpt-4o-transcribe",
		SupportsAudio:      true,
		RequiresCredential: true,
	},
	model.ModelNova: {
		Family:             model.FamilyDeepgram,
		ModelName:          "nova-2",
		SupportsAudio:      true,
		RequiresCredential: true,
	},
	model.ModelGeminiFlash: {
		Family:             model.FamilyGemini,
		ModelName:          "gemini-2.5-flash",
		SupportsAudio:      true,
		SupportsAgent:      true,
		RequiresCredential: true,
	},
	model.ModelClaudeCommand: {
		Family:             model.FamilyBedrock,
		ModelName:          "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
		SupportsAgent:      true,
		RequiresCredential: true,
	},
	model.ModelOllamaCommand: {
		Family:        model.FamilyOllama,
		ModelName:     "llama3.1",
		SupportsAgent: true,
	},
	model.ModelLocalWhisper: {
		Family:        model.FamilyLocal,
		ModelName:     "whisper-local",
		SupportsAudio: true,
	},
}

// Router resolves identifiers and drives exactly one outbound provider
// call per invocation. It never retries.
type Router struct {
	keys         keystore.Store
	baseURLs     map[model.ProviderFamily]string
	transcribers map[model.ProviderFamily]model.Transcriber
	agents       map[model.ProviderFamily]model.AgentTranscriber
	generators   map[model.ProviderFamily]model.CommandGenerator
}

// Option customizes a Router.
type Option func(*Router)

// WithLocalEngine installs the on-device STT engine for the local
// family.
func WithLocalEngine(engine local.Engine) Option {
	return func(r *Router) {
		r.transcribers[model.FamilyLocal] = local.NewTranscriber(engine)
	}
}

// WithBaseURL overrides a family's endpoint, mainly for tests and
// self-hosted gateways.
func WithBaseURL(family model.ProviderFamily, baseURL string) Option {
	return func(r *Router) {
		r.baseURLs[family] = baseURL
	}
}

// WithTranscriber replaces a family's transcription strategy.
func WithTranscriber(family model.ProviderFamily, t model.Transcriber) Option {
	return func(r *Router) {
		r.transcribers[family] = t
	}
}

// WithAgentTranscriber replaces a family's one-shot agent strategy.
func WithAgentTranscriber(family model.ProviderFamily, t model.AgentTranscriber) Option {
	return func(r *Router) {
		r.agents[family] = t
	}
}

// WithCommandGenerator replaces a family's text command strategy.
func WithCommandGenerator(family model.ProviderFamily, g model.CommandGenerator) Option {
	return func(r *Router) {
		r.generators[family] = g
	}
}

func New(keys keystore.Store, opts ...Option) *Router {
	geminiClient := gemini.NewClient()

	r := &Router{
		keys:     keys,
		baseURLs: make(map[model.ProviderFamily]string),
		transcribers: map[model.ProviderFamily]model.Transcriber{
			model.FamilyOpenAI:   openai.NewTranscriber(),
			model.FamilyDeepgram: deepgram.NewTranscriber(),
			model.FamilyGemini:   geminiClient,
			model.FamilyLocal:    local.NewTranscriber(nil),
		},
		agents: map[model.ProviderFamily]model.AgentTranscriber{
			model.FamilyGemini: geminiClient,
		},
		generators: map[model.ProviderFamily]model.CommandGenerator{
			model.FamilyGemini:  geminiClient,
			model.FamilyBedrock: bedrock.NewGenerator(),
			model.FamilyOllama:  ollama.NewGenerator(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up the routing entry for an identifier.
func (r *Router) Resolve(id model.ModelIdentifier) (FamilySpec, error) {
	spec, ok := modelTable[id]
	if !ok {
		return FamilySpec{}, model.NewCapabilityMismatch(fmt.Sprintf("unknown model identifier %q", id))
	}
	return spec, nil
}

// CheckCredential fails with a missing-credential fault when the
// family needs a secret and none is configured. It never touches the
// network.
func (r *Router) CheckCredential(spec FamilySpec) error {
	if !spec.RequiresCredential {
		return nil
	}
	if _, ok := r.keys.Get(spec.Family); !ok {
		return model.NewMissingCredential(spec.Family)
	}
	return nil
}

// Transcribe runs one plain STT call. hint, when non-empty, is passed
// to providers that accept a transcription prompt.
func (r *Router) Transcribe(
	ctx context.Context,
	id model.ModelIdentifier,
	audio model.AudioPayload,
	hint string,
) (string, model.GenerationMetadata, error) {
	spec, err := r.Resolve(id)
	if err != nil {
		return "", nil, err
	}
	if !spec.SupportsAudio {
		return "", nil, model.NewCapabilityMismatch(fmt.Sprintf("model %q does not accept audio", id))
	}
	if err := r.CheckCredential(spec); err != nil {
		return "", nil, err
	}

	strategy, ok := r.transcribers[spec.Family]
	if !ok {
		return "", nil, model.NewCapabilityMismatch(fmt.Sprintf("no transcription strategy for the %s family", spec.Family))
	}

	logging.NewLogger(ctx).Infof("route_transcribe model=%q family=%q", id, spec.Family)
	return strategy.Transcribe(ctx, audio, r.callOptions(spec, hint))
}

// TranscribeCommand runs agent mode in a single provider call. It
// never downgrades to raw: an identifier without agent support fails
// with a capability mismatch so the orchestrator can pick the
// two-stage fallback instead.
func (r *Router) TranscribeCommand(
	ctx context.Context,
	id model.ModelIdentifier,
	audio model.AudioPayload,
	prompt string,
) (string, model.GenerationMetadata, error) {
	spec, err := r.Resolve(id)
	if err != nil {
		return "", nil, err
	}
	if !spec.SupportsAgent || !spec.SupportsAudio {
		return "", nil, model.NewCapabilityMismatch(fmt.Sprintf("model %q does not support agent mode", id))
	}
	if err := r.CheckCredential(spec); err != nil {
		return "", nil, err
	}

	strategy, ok := r.agents[spec.Family]
	if !ok {
		return "", nil, model.NewCapabilityMismatch(fmt.Sprintf("no agent strategy for the %s family", spec.Family))
	}

	logging.NewLogger(ctx).Infof("route_transcribe_command model=%q family=%q", id, spec.Family)
	return strategy.TranscribeCommand(ctx, audio, r.callOptions(spec, prompt))
}

// GenerateCommand turns an existing transcript into a command, the
// second stage of the agent fallback.
func (r *Router) GenerateCommand(
	ctx context.Context,
	id model.ModelIdentifier,
	transcript string,
	prompt string,
) (string, model.GenerationMetadata, error) {
	spec, err := r.Resolve(id)
	if err != nil {
		return "", nil, err
	}
	if !spec.SupportsAgent {
		return "", nil, model.NewCapabilityMismatch(fmt.Sprintf("model %q cannot generate commands", id))
	}
	if err := r.CheckCredential(spec); err != nil {
		return "", nil, err
	}

	strategy, ok := r.generators[spec.Family]
	if !ok {
		return "", nil, model.NewCapabilityMismatch(fmt.Sprintf("no command strategy for the %s family", spec.Family))
	}

	logging.NewLogger(ctx).Infof("route_generate_command model=%q family=%q", id, spec.Family)
	return strategy.GenerateCommand(ctx, transcript, r.callOptions(spec, prompt))
}

func (r *Router) callOptions(spec FamilySpec, prompt string) model.CallOptions {
	secret, _ := r.keys.Get(spec.Family)
	return model.CallOptions{
		URL:       r.baseURLs[spec.Family],
		AuthToken: secret,
		Model:     spec.ModelName,
		Prompt:    prompt,
	}
}
