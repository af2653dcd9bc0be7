// Package gemini implements the LLM-based STT+reasoning provider
// family. Audio travels inline next to an instruction prompt, so the
// same call can return either a verbatim transcript or an executable
// command. It also exposes a text-only command generator for the
// second stage of the agent fallback.
package gemini

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
)

const (
	providerName     = "gemini"
	defaultModelName = "gemini-2.5-flash"

	transcribePrompt = "Transcribe this audio accurately. Return only the transcript text."
)

// Client serves all three call shapes of the family.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

// Transcribe performs plain speech to text. opts.Prompt, when present,
// is appended to the transcription instruction as a hint.
func (c *Client) Transcribe(
	ctx context.Context,
	audio model.AudioPayload,
	opts model.CallOptions,
) (string, model.GenerationMetadata, error) {
	instruction := transcribePrompt
	if hint := strings.TrimSpace(opts.Prompt); hint != "" {
		instruction = transcribePrompt + " " + hint
	}
	return c.generateFromAudio(ctx, audio, instruction, opts)
}

// TranscribeCommand handles agent mode in one call: the built agent
// prompt rides along with the audio and the response is the command.
func (c *Client) TranscribeCommand(
	ctx context.Context,
	audio model.AudioPayload,
	opts model.CallOptions,
) (string, model.GenerationMetadata, error) {
	instruction := strings.TrimSpace(opts.Prompt)
	if instruction == "" {
		meta := initMetadata(resolveModelName(opts))
		return "", meta, model.NewProviderError(0, "agent prompt is required", nil)
	}
	return c.generateFromAudio(ctx, audio, instruction, opts)
}

// GenerateCommand turns an existing transcript into a command using a
// text-only call.
func (c *Client) GenerateCommand(
	ctx context.Context,
	transcript string,
	opts model.CallOptions,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(opts)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(strings.TrimSpace(opts.Prompt) + "\n\nSpoken request: " + transcript),
			},
			genai.RoleUser,
		),
	}

	text, err := c.generate(ctx, modelName, contents, opts)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	return text, meta, nil
}

func (c *Client) generateFromAudio(
	ctx context.Context,
	audio model.AudioPayload,
	instruction string,
	opts model.CallOptions,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(opts)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	if len(audio.Data) == 0 {
		err := model.NewProviderError(0, "audio payload is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	log.Infof("transcription_request provider=%q model=%q bytes=%d", providerName, modelName, len(audio.Data))

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(instruction),
				genai.NewPartFromBytes(audio.Data, mimeType(audio)),
			},
			genai.RoleUser,
		),
	}

	text, err := c.generate(ctx, modelName, contents, opts)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	return text, meta, nil
}

func (c *Client) generate(
	ctx context.Context,
	modelName string,
	contents []*genai.Content,
	opts model.CallOptions,
) (string, error) {
	if strings.TrimSpace(opts.AuthToken) == "" {
		return "", model.NewMissingCredential(model.FamilyGemini)
	}

	client, err := newAPIClient(ctx, opts)
	if err != nil {
		return "", model.ClassifyCallError(err)
	}

	response, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return "", classifyError(err)
	}

	// Empty text with a successful call means no speech was detected.
	return strings.TrimSpace(response.Text()), nil
}

func newAPIClient(ctx context.Context, opts model.CallOptions) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  strings.TrimSpace(opts.AuthToken),
	}
	if baseURL := strings.TrimSpace(opts.URL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	return genai.NewClient(ctx, clientCfg)
}

func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return model.NewProviderError(apiErr.Code, apiErr.Message, err)
	}
	return model.ClassifyCallError(err)
}

func mimeType(audio model.AudioPayload) string {
	if mime := strings.TrimSpace(audio.MIMEType); mime != "" {
		return mime
	}
	return "audio/webm"
}

func resolveModelName(opts model.CallOptions) string {
	if name := strings.TrimSpace(opts.Model); name != "" {
		return name
	}
	return defaultModelName
}

func initMetadata(modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}
	return model.GenerationMetadata{
		model.MetadataKeyProvider: providerName,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}
