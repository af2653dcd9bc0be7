// Package bedrock implements a text-only command generator on the AWS
// Bedrock Converse API, usable as the second stage of the agent
// fallback. Auth rides the AWS SDK credential chain rather than a
// bearer token.
package bedrock

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/audiobash/voicepipe/pkg/logging"
	"github.com/audiobash/voicepipe/pkg/model"
)

const (
	providerName     = "bedrock"
	defaultModelName = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"
	defaultRegion    = "us-east-1"
)

// Generator issues one Converse call per command request.
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

	client, err := newClient(ctx, opts)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, err
	}

	log.Infof("command_request provider=%q model=%q transcript_len=%d", providerName, modelName, len(transcript))

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelName),
		Messages: []bedrocktypes.Message{
			{
				Role: bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{Value: "Spoken request: " + transcript},
				},
			},
		},
	}
	if system := strings.TrimSpace(opts.Prompt); system != "" {
		input.System = []bedrocktypes.SystemContentBlock{
			&bedrocktypes.SystemContentBlockMemberText{Value: system},
		}
	}

	output, err := client.Converse(ctx, input)
	if err != nil {
		classified := model.ClassifyCallError(err)
		log.Errorf("error: %v", classified)
		return "", meta, classified
	}

	message, err := extractOutputMessage(output.Output)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, err
	}
	return strings.TrimSpace(extractText(message)), meta, nil
}

func newClient(ctx context.Context, opts model.CallOptions) (*bedrockruntime.Client, error) {
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if baseURL := strings.TrimSpace(opts.URL); baseURL != "" {
			o.BaseEndpoint = aws.String(baseURL)
		}
	})
	return client, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = defaultRegion
	}

	accessKeyID := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	secretAccessKey := strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	profile := strings.TrimSpace(os.Getenv("AWS_PROFILE"))

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	switch {
	case accessKeyID != "" || secretAccessKey != "":
		if accessKeyID == "" || secretAccessKey == "" {
			return aws.Config{}, model.NewMissingCredential(model.FamilyBedrock)
		}
		sessionToken := strings.TrimSpace(os.Getenv("AWS_SESSION_TOKEN"))
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken),
		))
	case profile != "":
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	default:
		return aws.Config{}, model.NewMissingCredential(model.FamilyBedrock)
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, model.ClassifyCallError(err)
	}
	return cfg, nil
}

func extractOutputMessage(output bedrocktypes.ConverseOutput) (bedrocktypes.Message, error) {
	if output == nil {
		return bedrocktypes.Message{}, model.NewProviderError(0, "converse output is nil", nil)
	}
	messageOutput, ok := output.(*bedrocktypes.ConverseOutputMemberMessage)
	if !ok || messageOutput == nil {
		return bedrocktypes.Message{}, model.NewProviderError(0, "converse output is not a message", errors.New("unexpected output union member"))
	}
	return messageOutput.Value, nil
}

func extractText(message bedrocktypes.Message) string {
	parts := make([]string, 0, len(message.Content))
	for _, block := range message.Content {
		textBlock, ok := block.(*bedrocktypes.ContentBlockMemberText)
		if !ok || textBlock == nil {
			continue
		}
		if value := strings.TrimSpace(textBlock.Value); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, "\n")
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
