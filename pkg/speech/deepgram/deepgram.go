// Package deepgram implements the nova provider family: prerecorded
// speech to text over the Deepgram listen API. The request body is the
// raw audio payload; the response is JSON with the transcript nested
// under results.channels[].alternatives[]. STT-only.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
)

const (
	providerName     = "deepgram"
	defaultModelName = "nova-2"
	defaultBaseURL   = "https://api.deepgram.com"
	defaultTimeout   = 90 * time.Second
)

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type listenErrorResponse struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// Transcriber posts one recording to the listen endpoint.
type Transcriber struct {
	httpClient *http.Client
}

func NewTranscriber() *Transcriber {
	return &Transcriber{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
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
		err := model.NewMissingCredential(model.FamilyDeepgram)
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	endpoint := listenURL(opts.URL, modelName)
	log.Infof("transcription_request provider=%q model=%q bytes=%d", providerName, modelName, len(audio.Data))

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio.Data))
	if err != nil {
		classified := model.ClassifyCallError(err)
		log.Errorf("error: %v", classified)
		return "", meta, classified
	}
	request.Header.Set("Authorization", "Token "+opts.AuthToken)
	request.Header.Set("Content-Type", contentType(audio.MIMEType))

	response, err := t.httpClient.Do(request)
	if err != nil {
		classified := model.ClassifyCallError(err)
		log.Errorf("error: %v", classified)
		return "", meta, classified
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		classified := model.NewTransportError(err)
		log.Errorf("error: %v", classified)
		return "", meta, classified
	}

	meta[model.MetadataKeyStatusCode] = strconv.Itoa(response.StatusCode)
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		providerErr := model.NewProviderError(response.StatusCode, errorMessage(body), nil)
		log.Errorf("error: %v", providerErr)
		return "", meta, providerErr
	}

	transcript, err := parseTranscript(body)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	return transcript, meta, nil
}

// parseTranscript extracts the first alternative of the first channel.
// A missing or empty transcript field is a legitimate no-speech outcome
// and parses as ""; a body that is not valid JSON is a provider error.
func parseTranscript(body []byte) (string, error) {
	parsed := listenResponse{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", model.NewProviderError(0, "malformed response body", err)
	}
	if len(parsed.Results.Channels) == 0 {
		return "", nil
	}
	alternatives := parsed.Results.Channels[0].Alternatives
	if len(alternatives) == 0 {
		return "", nil
	}
	return strings.TrimSpace(alternatives[0].Transcript), nil
}

func errorMessage(body []byte) string {
	parsed := listenErrorResponse{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		message := strings.TrimSpace(parsed.ErrMsg)
		if message != "" {
			return message
		}
	}
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = "unknown deepgram error"
	}
	return message
}

func listenURL(baseURL, modelName string) string {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	base = strings.TrimSuffix(base, "/")

	query := url.Values{}
	query.Set("model", modelName)
	query.Set("smart_format", "true")
	return base + "/v1/listen?" + query.Encode()
}

func contentType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return "audio/webm"
	}
	return mimeType
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
