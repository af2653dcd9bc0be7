package tests

import (
	"context"
	"net"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/audiobash/voicepipe/pkg/prompt"
	"github.com/audiobash/voicepipe/pkg/speech/ollama"
)

type OllamaIntegrationSuite struct {
	ExternalDependenciesSuite
	baseURL   string
	modelName string
}

func (s *OllamaIntegrationSuite) SetupSuite() {
	s.ExternalDependenciesSuite.SetupSuite()

	s.baseURL = strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))
	if s.baseURL == "" {
		s.baseURL = "http://localhost:11434"
	}
	s.modelName = strings.TrimSpace(os.Getenv("OLLAMA_MODEL"))
	if s.modelName == "" {
		s.modelName = "llama3.1"
	}

	parsed, err := url.Parse(s.baseURL)
	require.NoError(s.T(), err)
	conn, err := net.DialTimeout("tcp", parsed.Host, 2*time.Second)
	if err != nil {
		s.T().Skipf("ollama is not reachable at %s (%v); skipping external dependency integration test", s.baseURL, err)
	}
	_ = conn.Close()
}

func (s *OllamaIntegrationSuite) TestGenerateCommand() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	agentPrompt := prompt.BuildAgentPrompt(model.TerminalContext{
		WorkingDir: "/tmp",
		OS:         model.OSPosix,
		Shell:      "bash",
	}, "", nil)

	command, meta, err := ollama.NewGenerator().GenerateCommand(ctx, "clear the screen", model.CallOptions{
		URL:    s.baseURL,
		Model:  s.modelName,
		Prompt: agentPrompt,
	})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), meta)
	assert.NotEmpty(s.T(), strings.TrimSpace(command))
	assert.NotContains(s.T(), command, "```")
}

func TestOllamaIntegrationSuite(t *testing.T) {
	suite.Run(t, new(OllamaIntegrationSuite))
}
