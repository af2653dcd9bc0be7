// Package local routes the offline on-device STT variant. The actual
// inference engine lives outside this module; the host application
// injects one through the Engine contract. Local transcription is
// free and needs no credential, so the routing and cost surfaces
// behave like any other family even when no engine is installed.
package local

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
)

const providerName = "local"

// Engine is the on-device inference contract.
type Engine interface {
	Transcribe(ctx context.Context, audio model.AudioPayload) (string, error)
}

// EngineFunc adapts a plain function to the Engine contract.
type EngineFunc func(ctx context.Context, audio model.AudioPayload) (string, error)

func (f EngineFunc) Transcribe(ctx context.Context, audio model.AudioPayload) (string, error) {
	return f(ctx, audio)
}

// Transcriber wraps an optional engine. A nil engine fails with a
// provider error telling the user no local model is installed.
type Transcriber struct {
	engine Engine
}

func NewTranscriber(engine Engine) *Transcriber {
	return &Transcriber{engine: engine}
}

func (t *Transcriber) Transcribe(
	ctx context.Context,
	audio model.AudioPayload,
	opts model.CallOptions,
) (string, model.GenerationMetadata, error) {
	start := time.Now()
	meta := initMetadata(opts.Model)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	if t.engine == nil {
		err := model.NewProviderError(0, "no local speech engine is installed", nil)
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	if len(audio.Data) == 0 {
		err := model.NewProviderError(0, "audio payload is empty", nil)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	log.Infof("transcription_request provider=%q bytes=%d", providerName, len(audio.Data))

	text, err := t.engine.Transcribe(ctx, audio)
	if err != nil {
		classified := model.ClassifyCallError(err)
		log.Errorf("error: %v", classified)
		return "", meta, classified
	}
	return strings.TrimSpace(text), meta, nil
}

func initMetadata(modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "whisper-local"
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
