package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dolo/internal/models"

	"google.golang.org/genai"
)

// fakeGenerator scripts one reply and records the request it received.
type fakeGenerator struct {
	reply string
	err   error

	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	f.model = model
	f.contents = contents
	f.cfg = cfg
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testTurns() []*models.Message {
	return []*models.Message{
		{Role: models.RoleSystem, Content: "primary instruction"},
		{Role: models.RoleSystem, Content: "continuation instruction"},
		{Role: models.RoleUser, Content: "my report says X"},
		{Role: models.RoleAssistant, Content: "X looks fine"},
		{Role: models.RoleUser, Content: "what about Y?"},
	}
}

func TestTextExchangePartitionsSystemTurns(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	gw := NewGatewayWithGenerator(gen, "gemini-2.5-flash")

	if _, err := gw.TextExchange(context.Background(), testTurns()); err != nil {
		t.Fatalf("text exchange: %v", err)
	}
	if gen.model != "gemini-2.5-flash" {
		t.Fatalf("model mismatch: %q", gen.model)
	}
	if gen.cfg.SystemInstruction == nil {
		t.Fatalf("expected a system instruction")
	}
	wantSystem := "primary instruction\n\ncontinuation instruction"
	if got := gen.cfg.SystemInstruction.Parts[0].Text; got != wantSystem {
		t.Fatalf("system instruction join mismatch: %q", got)
	}
	if gen.cfg.Temperature == nil || *gen.cfg.Temperature != 0.2 {
		t.Fatalf("temperature must be fixed at 0.2")
	}
	if gen.cfg.MaxOutputTokens != 2000 {
		t.Fatalf("max output tokens must be 2000, got %d", gen.cfg.MaxOutputTokens)
	}

	wantRoles := []string{"user", "model", "user"}
	wantTexts := []string{"my report says X", "X looks fine", "what about Y?"}
	if len(gen.contents) != len(wantRoles) {
		t.Fatalf("expected %d conversation turns, got %d", len(wantRoles), len(gen.contents))
	}
	for i, content := range gen.contents {
		if content.Role != wantRoles[i] {
			t.Fatalf("turn %d role: want %q got %q", i, wantRoles[i], content.Role)
		}
		if content.Parts[0].Text != wantTexts[i] {
			t.Fatalf("turn %d text: want %q got %q", i, wantTexts[i], content.Parts[0].Text)
		}
	}
}

func TestTextExchangeParsesStructuredReply(t *testing.T) {
	raw := `{"summary":"Mild anemia.","abnormal_findings":[{"parameter":"Hemoglobin","value":"9.8","normal_range":"12-16","severity":"medium"}],"recommended_tests":["Ferritin"],"lifestyle_suggestions":["Iron-rich diet"],"urgency":"medium"}`
	gen := &fakeGenerator{reply: raw}
	gw := NewGatewayWithGenerator(gen, "gemini-2.5-flash")

	outcome, err := gw.TextExchange(context.Background(), testTurns())
	if err != nil {
		t.Fatalf("text exchange: %v", err)
	}
	if outcome.Analysis == nil {
		t.Fatalf("expected parsed analysis")
	}
	if outcome.Analysis.Summary != "Mild anemia." || outcome.Analysis.Urgency != "medium" {
		t.Fatalf("unexpected analysis %+v", outcome.Analysis)
	}
	if len(outcome.Analysis.AbnormalFindings) != 1 || outcome.Analysis.AbnormalFindings[0].Parameter != "Hemoglobin" {
		t.Fatalf("unexpected findings %+v", outcome.Analysis.AbnormalFindings)
	}
	if outcome.Raw != raw {
		t.Fatalf("raw text must be preserved")
	}
	if outcome.Response() != any(outcome.Analysis) {
		t.Fatalf("response must prefer the structured analysis")
	}
}

func TestTextExchangeKeepsRawOnParseFailure(t *testing.T) {
	gen := &fakeGenerator{reply: "Hello, how can I help?"}
	gw := NewGatewayWithGenerator(gen, "gemini-2.5-flash")

	outcome, err := gw.TextExchange(context.Background(), testTurns())
	if err != nil {
		t.Fatalf("parse failure is not an error: %v", err)
	}
	if outcome.Analysis != nil {
		t.Fatalf("expected unparsed outcome")
	}
	if outcome.Response() != "Hello, how can I help?" {
		t.Fatalf("response must degrade to raw text, got %#v", outcome.Response())
	}
}

func TestTextExchangeWrapsProviderFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("429 quota exhausted")}
	gw := NewGatewayWithGenerator(gen, "gemini-2.5-flash")

	_, err := gw.TextExchange(context.Background(), testTurns())
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !strings.Contains(upstream.Error(), "quota") {
		t.Fatalf("provider message must be preserved: %q", upstream.Error())
	}
}

func TestImageExchangeAttachesImageToLastTurn(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	gw := NewGatewayWithGenerator(gen, "gemini-2.5-flash")

	data := []byte{0x89, 'P', 'N', 'G'}
	if _, err := gw.ImageExchange(context.Background(), testTurns(), data, "image/png"); err != nil {
		t.Fatalf("image exchange: %v", err)
	}

	// system instruction comes from the non-last turns only
	wantSystem := "primary instruction\n\ncontinuation instruction"
	if got := gen.cfg.SystemInstruction.Parts[0].Text; got != wantSystem {
		t.Fatalf("system instruction mismatch: %q", got)
	}
	if len(gen.contents) != 3 {
		t.Fatalf("expected 3 conversation turns, got %d", len(gen.contents))
	}

	last := gen.contents[len(gen.contents)-1]
	if last.Role != "user" {
		t.Fatalf("image carrier must be a user turn, got %q", last.Role)
	}
	if len(last.Parts) != 2 {
		t.Fatalf("expected text + image parts, got %d", len(last.Parts))
	}
	if last.Parts[0].Text != "what about Y?" {
		t.Fatalf("last turn's text must carry the image, got %q", last.Parts[0].Text)
	}
	blob := last.Parts[1].InlineData
	if blob == nil || blob.MIMEType != "image/png" || string(blob.Data) != string(data) {
		t.Fatalf("inline image payload mismatch: %+v", blob)
	}
}

func TestImageExchangeEmptyContextFallsBack(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	gw := NewGatewayWithGenerator(gen, "gemini-2.5-flash")

	if _, err := gw.ImageExchange(context.Background(), nil, []byte("img"), "image/webp"); err != nil {
		t.Fatalf("image exchange: %v", err)
	}
	if gen.cfg.SystemInstruction != nil {
		t.Fatalf("empty context has no system instruction")
	}
	if len(gen.contents) != 1 {
		t.Fatalf("expected a single user turn, got %d", len(gen.contents))
	}
	if gen.contents[0].Parts[0].Text != defaultImagePrompt {
		t.Fatalf("expected default prompt, got %q", gen.contents[0].Parts[0].Text)
	}
}
