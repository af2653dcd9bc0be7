package local

import (
	"context"
	"errors"
	"testing"

	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/stretchr/testify/suite"
)

type TranscriberSuite struct {
	suite.Suite
}

func TestTranscriberSuite(t *testing.T) {
	suite.Run(t, new(TranscriberSuite))
}

func (s *TranscriberSuite) audio() model.AudioPayload {
	return model.AudioPayload{Data: []byte("pcm"), MIMEType: "audio/wav"}
}

func (s *TranscriberSuite) TestTranscribeWithoutEngine() {
	_, _, err := NewTranscriber(nil).Transcribe(context.Background(), s.audio(), model.CallOptions{})

	s.Require().Error(err)
	s.Equal(model.FaultProvider, model.KindOf(err))
	s.Contains(err.Error(), "no local speech engine")
}

func (s *TranscriberSuite) TestTranscribeDelegatesToEngine() {
	engine := EngineFunc(func(ctx context.Context, audio model.AudioPayload) (string, error) {
		return "  hello world  ", nil
	})

	text, meta, err := NewTranscriber(engine).Transcribe(context.Background(), s.audio(), model.CallOptions{})

	s.Require().NoError(err)
	s.Equal("hello world", text)
	s.Equal(providerName, meta[model.MetadataKeyProvider])
}

func (s *TranscriberSuite) TestTranscribeEngineErrorIsClassified() {
	engine := EngineFunc(func(ctx context.Context, audio model.AudioPayload) (string, error) {
		return "", errors.New("model file missing")
	})

	_, _, err := NewTranscriber(engine).Transcribe(context.Background(), s.audio(), model.CallOptions{})

	s.Require().Error(err)
	s.Equal(model.FaultTransport, model.KindOf(err))
}

func (s *TranscriberSuite) TestTranscribeEmptyPayload() {
	engine := EngineFunc(func(ctx context.Context, audio model.AudioPayload) (string, error) {
		return "should not run", nil
	})

	_, _, err := NewTranscriber(engine).Transcribe(context.Background(), model.AudioPayload{}, model.CallOptions{})

	s.Require().Error(err)
	s.Equal(model.FaultProvider, model.KindOf(err))
}
