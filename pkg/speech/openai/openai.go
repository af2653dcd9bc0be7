// Package openai implements the whisper provider family: speech to
// text over the OpenAI audio transcription API, multipart-encoded.
// The family is STT-only; agent mode goes through the two-stage
// fallback.
package openai

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
)

const (
	providerName     = "openai"
	defaultModelName = "whisper-1"
)

// Transcriber calls the OpenAI audio transcription endpoint.
type Transcriber struct{}

func NewTranscriber() *Transcriber {
	return &Transcriber{}
}

func (t *Transcriber) Transcribe(
	ctx context.Context,
	audio model.AudioPayload,
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
	if strings.TrimSpace(opts.AuthToken) == "" {
		err := model.NewMissingCredential(model.FamilyOpenAI)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	log.Infof("transcription_request provider=%q model=%q bytes=%d", providerName, modelName, len(audio.Data))

	client := newAPIClient(opts)
	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(audio.Data), fileName(audio.MIMEType), audio.MIMEType),
		Model:          openai.AudioModel(modelName),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if hint := strings.TrimSpace(opts.Prompt); hint != "" {
		params.Prompt = param.NewOpt(hint)
	}

	response, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		classified := classifyError(err)
		log.Errorf("error: %v", classified)
		return "", meta, classified
	}
	if response == nil {
		err := model.NewProviderError(0, "transcription API returned nil response", nil)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	// An empty transcript means no speech was detected. That is a
	// successful outcome, never an error.
	return strings.TrimSpace(response.Text), meta, nil
}

func newAPIClient(opts model.CallOptions) openai.Client {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.AuthToken),
	}
	if baseURL := strings.TrimSpace(opts.URL); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(clientOpts...)
}

func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return model.NewProviderError(apiErr.StatusCode, apiErr.Message, err)
	}
	return model.ClassifyCallError(err)
}

func resolveModelName(opts model.CallOptions) string {
	if name := strings.TrimSpace(opts.Model); name != "" {
		return name
	}
	return defaultModelName
}

// fileName synthesizes the multipart filename from the capturing MIME
// type; the API uses the extension to pick a decoder.
func fileName(mimeType string) string {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	if ext, ok := strings.CutPrefix(mimeType, "audio/"); ok && ext != "" {
		if ext == "mpeg" {
			ext = "mp3"
		}
		return "audio." + ext
	}
	return "audio.webm"
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
