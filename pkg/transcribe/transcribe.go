// Package transcribe is the pipeline façade. It owns request
// orchestration: identifier resolution, prompt assembly, the two-stage
// agent fallback, vocabulary substitution and cost estimation. All
// provider traffic goes through a Dispatcher so the stages stay
// testable without network access.
package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/audiobash/voicepipe/pkg/cost"
	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/audiobash/voicepipe/pkg/prompt"
	"github.com/audiobash/voicepipe/pkg/router"
	"github.com/audiobash/voicepipe/pkg/vocab"
)

// Dispatcher is the routing surface the orchestrator depends on.
// *router.Router implements it.
type Dispatcher interface {
	Resolve(id model.ModelIdentifier) (router.FamilySpec, error)
	CheckCredential(spec router.FamilySpec) error
	Transcribe(ctx context.Context, id model.ModelIdentifier, audio model.AudioPayload, hint string) (string, model.GenerationMetadata, error)
	TranscribeCommand(ctx context.Context, id model.ModelIdentifier, audio model.AudioPayload, prompt string) (string, model.GenerationMetadata, error)
	GenerateCommand(ctx context.Context, id model.ModelIdentifier, transcript string, prompt string) (string, model.GenerationMetadata, error)
}

// Request is one captured utterance plus the knobs that shape its
// processing. DurationMs comes from the recorder and only feeds cost
// estimation.
type Request struct {
	Audio      model.AudioPayload
	Mode       model.TranscriptionMode
	Model      model.ModelIdentifier
	DurationMs int64
	SessionID  string
	// Timeout overrides Config.Timeout for this request when positive.
	Timeout time.Duration
}

// Config is the per-service snapshot of user configuration.
type Config struct {
	Instructions model.CustomInstructions
	// AgentFallbackModel generates the command when the selected model
	// can only transcribe. Empty disables the fallback: agent mode on
	// an STT-only model then fails with a capability mismatch.
	AgentFallbackModel model.ModelIdentifier
	// Timeout bounds each request end to end. Zero disables the bound.
	Timeout time.Duration
}

// Service runs transcription requests. Safe for concurrent use: each
// request works on its own instruction snapshot.
type Service struct {
	routes Dispatcher
	host   model.TerminalHost
	cfg    Config
}

func NewService(routes Dispatcher, host model.TerminalHost, cfg Config) *Service {
	return &Service{routes: routes, host: host, cfg: cfg}
}

// Run executes one request. On success the result always carries text
// (possibly empty, meaning no speech was detected) and a cost figure.
// A cancelled request returns neither a result nor an error.
func (s *Service) Run(ctx context.Context, req Request) (*model.TranscribeResult, error) {
	log := logging.NewLogger(ctx)
	requestID := uuid.NewString()

	spec, err := s.routes.Resolve(req.Model)
	if err != nil {
		log.Errorf("error: %v", err)
		return nil, err
	}

	timeout := s.cfg.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	instructions := s.cfg.Instructions.Clone()
	log.Infof("transcribe_request id=%q model=%q mode=%q duration_ms=%d",
		requestID, req.Model, req.Mode, req.DurationMs)

	var result *model.TranscribeResult
	switch req.Mode {
	case model.ModeAgent:
		result, err = s.runAgent(ctx, req, spec, instructions)
	default:
		result, err = s.runRaw(ctx, req, spec, instructions)
	}
	if err != nil {
		if model.IsKind(err, model.FaultCancelled) {
			log.Infof("transcribe_cancelled id=%q", requestID)
			return nil, nil
		}
		log.Errorf("error: %v", err)
		return nil, err
	}

	result.Metadata[model.MetadataKeyRequestID] = requestID
	return result, nil
}

// runRaw performs a single transcription call and post-processes the
// transcript.
func (s *Service) runRaw(
	ctx context.Context,
	req Request,
	spec router.FamilySpec,
	instructions model.CustomInstructions,
) (*model.TranscribeResult, error) {
	hint := prompt.BuildTranscriptionHint(instructions.RawModeInstructions, instructions.Vocabulary)

	text, meta, err := s.routes.Transcribe(ctx, req.Model, req.Audio, hint)
	if err != nil {
		return nil, err
	}

	if meta == nil {
		meta = model.GenerationMetadata{}
	}
	meta[model.MetadataKeyStages] = "1"
	return &model.TranscribeResult{
		Text:     vocab.Apply(instructions.Vocabulary, text),
		Cost:     cost.Estimate(req.DurationMs, spec.Family),
		Metadata: meta,
	}, nil
}

// runAgent produces a shell command. Agent-capable audio models do it
// in one call; everything else transcribes first and hands the
// transcript to the fallback model.
func (s *Service) runAgent(
	ctx context.Context,
	req Request,
	spec router.FamilySpec,
	instructions model.CustomInstructions,
) (*model.TranscribeResult, error) {
	agentPrompt := prompt.BuildAgentPrompt(
		s.terminalContext(ctx, req.SessionID),
		instructions.AgentModeInstructions,
		instructions.Vocabulary,
	)

	if spec.SupportsAgent && spec.SupportsAudio {
		text, meta, err := s.routes.TranscribeCommand(ctx, req.Model, req.Audio, agentPrompt)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			meta = model.GenerationMetadata{}
		}
		meta[model.MetadataKeyStages] = "1"
		return &model.TranscribeResult{
			Text:     strings.TrimSpace(text),
			Cost:     cost.Estimate(req.DurationMs, spec.Family),
			Metadata: meta,
		}, nil
	}

	return s.runTwoStage(ctx, req, spec, instructions, agentPrompt)
}

// runTwoStage transcribes with the selected model, then asks the
// fallback model for a command. An empty transcript short-circuits:
// there is nothing to turn into a command, and the audio stage still
// costs money.
func (s *Service) runTwoStage(
	ctx context.Context,
	req Request,
	sttSpec router.FamilySpec,
	instructions model.CustomInstructions,
	agentPrompt string,
) (*model.TranscribeResult, error) {
	log := logging.NewLogger(ctx)

	fallbackID := s.cfg.AgentFallbackModel
	if fallbackID == "" {
		return nil, model.NewCapabilityMismatch(fmt.Sprintf(
			"model %q does not support agent mode and no fallback model is configured", req.Model))
	}
	fallbackSpec, err := s.routes.Resolve(fallbackID)
	if err != nil {
		return nil, err
	}
	// Both stages bill; a missing stage-2 credential must fail before
	// stage 1 spends a network call.
	if err := s.routes.CheckCredential(fallbackSpec); err != nil {
		return nil, err
	}

	hint := prompt.BuildTranscriptionHint("", instructions.Vocabulary)
	text, sttMeta, err := s.routes.Transcribe(ctx, req.Model, req.Audio, hint)
	if err != nil {
		return nil, err
	}

	transcript := vocab.Apply(instructions.Vocabulary, text)
	if strings.TrimSpace(transcript) == "" {
		log.Infof("two_stage_skip model=%q reason=%q", req.Model, "empty transcript")
		if sttMeta == nil {
			sttMeta = model.GenerationMetadata{}
		}
		sttMeta[model.MetadataKeyStages] = "1"
		return &model.TranscribeResult{
			Text:     "",
			Cost:     cost.Estimate(req.DurationMs, sttSpec.Family),
			Metadata: sttMeta,
		}, nil
	}

	log.Infof("two_stage_generate stt=%q agent=%q", req.Model, fallbackID)
	command, agentMeta, err := s.routes.GenerateCommand(ctx, fallbackID, transcript, agentPrompt)
	if err != nil {
		return nil, err
	}

	if agentMeta == nil {
		agentMeta = model.GenerationMetadata{}
	}
	agentMeta[model.MetadataKeyStages] = "2"
	agentMeta.Merge("stage1_", sttMeta)
	return &model.TranscribeResult{
		Text:     strings.TrimSpace(command),
		Cost:     cost.EstimateTwoStage(req.DurationMs, sttSpec.Family, fallbackSpec.Family),
		Metadata: agentMeta,
	}, nil
}

// terminalContext snapshots shell state for the agent prompt. A host
// failure degrades to a zero context rather than failing the request.
func (s *Service) terminalContext(ctx context.Context, sessionID string) model.TerminalContext {
	if s.host == nil {
		return model.TerminalContext{}
	}
	termCtx, err := s.host.GetContext(ctx, sessionID)
	if err != nil {
		logging.NewLogger(ctx).Warnf("terminal_context_unavailable: %v", err)
		return model.TerminalContext{}
	}
	return termCtx
}
