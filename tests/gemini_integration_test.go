package tests

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/audiobash/voicepipe/pkg/prompt"
	"github.com/audiobash/voicepipe/pkg/speech/gemini"
)

type GeminiIntegrationSuite struct {
	ExternalDependenciesSuite
	apiKey    string
	modelName string
}

func (s *GeminiIntegrationSuite) SetupSuite() {
	s.ExternalDependenciesSuite.SetupSuite()

	s.apiKey = strings.TrimSpace(os.Getenv("GEMINI_KEY"))
	s.modelName = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))

	if s.apiKey == "" {
		s.T().Skip("GEMINI_KEY is not set; skipping external dependency integration test")
	}
	if s.modelName == "" {
		s.modelName = "gemini-2.5-flash"
	}
}

func (s *GeminiIntegrationSuite) agentPrompt() string {
	return prompt.BuildAgentPrompt(model.TerminalContext{
		WorkingDir: "/tmp",
		OS:         model.OSPosix,
		Shell:      "bash",
	}, "", nil)
}

func (s *GeminiIntegrationSuite) TestTranscribe() {
	audio := loadAudioFixture(s.T())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	text, meta, err := gemini.NewClient().Transcribe(ctx, audio, model.CallOptions{
		AuthToken: s.apiKey,
		Model:     s.modelName,
	})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), meta)
	assert.NotEmpty(s.T(), strings.TrimSpace(text))
}

func (s *GeminiIntegrationSuite) TestTranscribeCommand() {
	audio := loadAudioFixture(s.T())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	command, meta, err := gemini.NewClient().TranscribeCommand(ctx, audio, model.CallOptions{
		AuthToken: s.apiKey,
		Model:     s.modelName,
		Prompt:    s.agentPrompt(),
	})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), meta)
	assert.NotEmpty(s.T(), strings.TrimSpace(command))
	assert.NotContains(s.T(), command, "```")
}

func (s *GeminiIntegrationSuite) TestGenerateCommand() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	command, meta, err := gemini.NewClient().GenerateCommand(ctx, "list the files in this directory", model.CallOptions{
		AuthToken: s.apiKey,
		Model:     s.modelName,
		Prompt:    s.agentPrompt(),
	})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), meta)
	assert.Contains(s.T(), command, "ls")
}

func TestGeminiIntegrationSuite(t *testing.T) {
	suite.Run(t, new(GeminiIntegrationSuite))
}
