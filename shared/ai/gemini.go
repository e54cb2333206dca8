package ai

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"verifylens/internal/models"
)

// Generation parameters are fixed for every analysis.
const (
	temperature     float32 = 0.1
	topP            float32 = 1.0
	topK            float32 = 32
	maxOutputTokens int32   = 4096
)

func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiModel opens chat sessions against a Gemini model.
type GeminiModel struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGeminiModel(client *genai.Client, model string) *GeminiModel {
	return &GeminiModel{
		client: client,
		model:  model,
		config: generationConfig(),
	}
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		TopP:            genai.Ptr(topP),
		TopK:            genai.Ptr(topK),
		MaxOutputTokens: maxOutputTokens,
	}
}

func (g *GeminiModel) StartChat(ctx context.Context) (ChatSession, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, g.config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start chat with %s: %w", g.model, err)
	}
	return &geminiSession{chat: chat}, nil
}

type geminiSession struct {
	chat *genai.Chat
}

func (s *geminiSession) Send(ctx context.Context, prompt string, attachment *models.UploadedMedia) (*Reply, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if attachment != nil {
		parts = append(parts, genai.NewPartFromURI(attachment.URI, attachment.MIMEType))
	}

	start := time.Now()
	resp, err := s.chat.Send(ctx, parts...)
	if err != nil {
		return nil, err
	}
	return adaptResponse(resp, time.Since(start)), nil
}

// adaptResponse converts an SDK reply into a Reply once, here, so nothing
// downstream inspects SDK types.
func adaptResponse(resp *genai.GenerateContentResponse, elapsed time.Duration) *Reply {
	reply := &Reply{ResponseTime: elapsed}
	if resp == nil {
		return reply
	}
	reply.Text = resp.Text()
	if resp.UsageMetadata != nil {
		reply.TokenCount = int(resp.UsageMetadata.TotalTokenCount)
	}
	return reply
}
