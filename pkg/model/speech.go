package model

import "context"

// TranscriptionMode selects what the pipeline produces from captured audio.
type TranscriptionMode string

const (
	// ModeRaw returns the verbatim transcript.
	ModeRaw TranscriptionMode = "raw"
	// ModeAgent reinterprets the transcript as an executable shell command.
	ModeAgent TranscriptionMode = "agent"
)

// ProviderFamily groups model identifiers that share one network-call
// convention: request encoding, auth header shape and response layout.
type ProviderFamily string

const (
	FamilyOpenAI   ProviderFamily = "openai"
	FamilyDeepgram ProviderFamily = "deepgram"
	FamilyGemini   ProviderFamily = "gemini"
	FamilyBedrock  ProviderFamily = "bedrock"
	FamilyOllama   ProviderFamily = "ollama"
	FamilyLocal    ProviderFamily = "local"
)

// ModelIdentifier names a user-selectable transcription or agent model.
// Every identifier maps to exactly one provider family.
type ModelIdentifier string

const (
	// ModelWhisperFast is the fast cloud STT variant (openai family).
	ModelWhisperFast ModelIdentifier = "whisper-fast"
	// ModelWhisperLarge is the large cloud STT variant (openai family).
	ModelWhisperLarge ModelIdentifier = "whisper-large"
	// ModelNova is the low-latency cloud STT variant (deepgram family).
	ModelNova ModelIdentifier = "nova"
	// ModelGeminiFlash is the LLM-based STT+reasoning variant. It is the
	// only identifier that handles agent mode in a single provider call.
	ModelGeminiFlash ModelIdentifier = "gemini-flash"
	// ModelClaudeCommand is a text-only command generator (bedrock
	// family), usable as the second stage of the agent fallback.
	ModelClaudeCommand ModelIdentifier = "claude-command"
	// ModelOllamaCommand is a local, free text-only command generator.
	ModelOllamaCommand ModelIdentifier = "ollama-command"
	// ModelLocalWhisper is the offline on-device STT variant.
	ModelLocalWhisper ModelIdentifier = "local-whisper"
)

// AudioPayload is one captured recording, in the capturing container
// format (e.g. audio/webm). The pipeline never re-encodes it; each
// provider family decides whether it travels as multipart or base64.
type AudioPayload struct {
	Data     []byte
	MIMEType string
}

// CallOptions configure a single provider call.
type CallOptions struct {
	// URL overrides the provider's default endpoint.
	URL string
	// AuthToken is the credential resolved from the key store.
	AuthToken string
	// Model is the provider-native model name.
	Model string
	// Prompt is the transcription hint (raw mode) or the fully built
	// agent instruction prompt (agent mode).
	Prompt string
}

// Transcriber turns one audio payload into plain text.
//
// An empty transcript with a successful call means "no speech
// detected" and is a legitimate outcome, not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio AudioPayload, opts CallOptions) (string, GenerationMetadata, error)
}

// CommandGenerator turns a transcript plus an instruction prompt into a
// shell command. Used as the second stage of the agent fallback.
type CommandGenerator interface {
	GenerateCommand(ctx context.Context, transcript string, opts CallOptions) (string, GenerationMetadata, error)
}

// AgentTranscriber handles agent mode in one provider call: audio in,
// shell command out.
type AgentTranscriber interface {
	TranscribeCommand(ctx context.Context, audio AudioPayload, opts CallOptions) (string, GenerationMetadata, error)
}
