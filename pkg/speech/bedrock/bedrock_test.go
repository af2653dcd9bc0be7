package bedrock

import (
	"context"
	"testing"

	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/suite"

	"github.com/audiobash/voicepipe/pkg/model"
)

type GeneratorSuite struct {
	suite.Suite
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) clearAWSEnv() {
	s.T().Setenv("AWS_ACCESS_KEY_ID", "")
	s.T().Setenv("AWS_SECRET_ACCESS_KEY", "")
	s.T().Setenv("AWS_PROFILE", "")
	s.T().Setenv("AWS_SESSION_TOKEN", "")
}

func (s *GeneratorSuite) TestGenerateCommandEmptyTranscript() {
	_, _, err := NewGenerator().GenerateCommand(context.Background(), "  ", model.CallOptions{})

	s.Require().Error(err)
	s.Equal(model.FaultProvider, model.KindOf(err))
}

func (s *GeneratorSuite) TestGenerateCommandMissingCredentials() {
	s.clearAWSEnv()

	_, _, err := NewGenerator().GenerateCommand(context.Background(), "list files", model.CallOptions{
		Prompt: "turn speech into a command",
	})

	s.Require().Error(err)
	s.Equal(model.FaultMissingCredential, model.KindOf(err))
}

func (s *GeneratorSuite) TestGenerateCommandPartialKeyPairIsMissingCredential() {
	s.clearAWSEnv()
	s.T().Setenv("AWS_ACCESS_KEY_ID", "AKIA-only-half")

	_, _, err := NewGenerator().GenerateCommand(context.Background(), "list files", model.CallOptions{})

	s.Require().Error(err)
	s.Equal(model.FaultMissingCredential, model.KindOf(err))
}

func (s *GeneratorSuite) TestExtractTextJoinsTextBlocks() {
	message := bedrocktypes.Message{
		Content: []bedrocktypes.ContentBlock{
			&bedrocktypes.ContentBlockMemberText{Value: " ls -la "},
			&bedrocktypes.ContentBlockMemberText{Value: ""},
		},
	}
	s.Equal("ls -la", extractText(message))
}

func (s *GeneratorSuite) TestExtractOutputMessageNil() {
	_, err := extractOutputMessage(nil)
	s.Require().Error(err)
	s.Equal(model.FaultProvider, model.KindOf(err))
}

func (s *GeneratorSuite) TestResolveModelNameDefault() {
	s.Equal(defaultModelName, resolveModelName(model.CallOptions{}))
}
