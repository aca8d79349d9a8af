package ai

import (
	"context"
	"fmt"
	"strings"

	"dolo/internal/config"
	"dolo/internal/models"

	"google.golang.org/genai"
)

const (
	// Low temperature keeps the output factual; medical analysis is not a
	// creative-writing task.
	temperature     = 0.2
	maxOutputTokens = 2000

	// Used when an image exchange is invoked with an empty context.
	defaultImagePrompt = "Analyze this medical report."
)

// ContentGenerator issues one generation call against the provider. The
// production implementation wraps the genai client; tests inject fakes.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
}

func (g *geminiGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Gateway normalizes exchanges with the Gemini API into Outcomes.
type Gateway struct {
	gen   ContentGenerator
	model string
}

// NewGateway builds a gateway backed by a real Gemini client.
func NewGateway(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gateway{gen: &geminiGenerator{client: client}, model: cfg.Gemini.Model}, nil
}

// NewGatewayWithGenerator builds a gateway around an injected generator.
func NewGatewayWithGenerator(gen ContentGenerator, model string) *Gateway {
	return &Gateway{gen: gen, model: model}
}

// TextExchange sends an assembled context to the model. System turns are
// joined into a single system instruction; user and assistant turns become
// the conversation, with assistant mapped to the provider's "model" role.
func (g *Gateway) TextExchange(ctx context.Context, turns []*models.Message) (Outcome, error) {
	system, conversation := partition(turns)
	return g.generate(ctx, conversation, system)
}

// ImageExchange sends an assembled context plus one inline image. The last
// turn's text and the image bytes are combined into the final user turn;
// only the turns before it contribute to the system instruction.
func (g *Gateway) ImageExchange(ctx context.Context, turns []*models.Message, data []byte, mimeType string) (Outcome, error) {
	lastText := defaultImagePrompt
	var head []*models.Message
	if len(turns) > 0 {
		head = turns[:len(turns)-1]
		lastText = turns[len(turns)-1].Content
	}
	system, conversation := partition(head)

	parts := []*genai.Part{
		genai.NewPartFromText(lastText),
		genai.NewPartFromBytes(data, mimeType),
	}
	conversation = append(conversation, genai.NewContentFromParts(parts, genai.RoleUser))
	return g.generate(ctx, conversation, system)
}

// partition splits turns into the joined system instruction and the ordered
// non-system conversation, preserving relative order within each.
func partition(turns []*models.Message) (string, []*genai.Content) {
	var systemParts []string
	var conversation []*genai.Content
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleSystem:
			systemParts = append(systemParts, turn.Content)
		case models.RoleAssistant:
			conversation = append(conversation, genai.NewContentFromText(turn.Content, genai.RoleModel))
		default:
			conversation = append(conversation, genai.NewContentFromText(turn.Content, genai.RoleUser))
		}
	}
	return strings.Join(systemParts, "\n\n"), conversation
}

func (g *Gateway) generate(ctx context.Context, contents []*genai.Content, systemInstruction string) (Outcome, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](temperature),
		MaxOutputTokens: maxOutputTokens,
	}
	if systemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	raw, err := g.gen.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return Outcome{}, &UpstreamError{Err: err}
	}
	return normalize(raw), nil
}
