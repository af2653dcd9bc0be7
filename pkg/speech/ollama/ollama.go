// Package ollama implements the free, local command generator family.
// It needs no credential and prices at zero; the model runs on a
// locally hosted Ollama server.
package ollama

import (
	"context"
	"strconv"
	"strings"
	"time"

	ollamasdk "github.com/rozoomcool/go-ollama-sdk"

	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
)

const (
	providerName     = "ollama"
	defaultModelName = "llama3.1"
	defaultBaseURL   = "http://localhost:11434"
)

// Generator issues one chat call per command request.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) GenerateCommand(
	ctx context.Context,
	transcript string,
	opts model.CallOptions,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(opts)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		err := model.NewProviderError(0, "transcript is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	baseURL := resolveBaseURL(opts)
	log.Infof("command_request provider=%q model=%q base_url=%q", providerName, modelName, baseURL)

	messages := make([]ollamasdk.ChatMessage, 0, 2)
	if system := strings.TrimSpace(opts.Prompt); system != "" {
		messages = append(messages, ollamasdk.ChatMessage{
			Role:    "system",
			Content: system,
		})
	}
	messages = append(messages, ollamasdk.ChatMessage{
		Role:    "user",
		Content: "Spoken request: " + transcript,
	})

	client := ollamasdk.NewClient(baseURL)
	text, err := client.Chat(modelName, messages)
	if err != nil {
		classified := model.ClassifyCallError(err)
		log.Errorf("error: %v", classified)
		return "", meta, classified
	}

	return stripCodeFences(text), meta, nil
}

// stripCodeFences unwraps a command a chat model returned inside a
// markdown fence.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```sh")
	trimmed = strings.TrimPrefix(trimmed, "```bash")
	trimmed = strings.TrimPrefix(trimmed, "```powershell")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func resolveBaseURL(opts model.CallOptions) string {
	if baseURL := strings.TrimSpace(opts.URL); baseURL != "" {
		return baseURL
	}
	return defaultBaseURL
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
