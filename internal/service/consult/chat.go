package consult

import (
	"context"
	"errors"
	"fmt"

	"dolo/internal/models"
)

// Validation failures for report uploads. The request is aborted before any
// persistence when one of these is returned.
var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// ChatResult is the reply to a text turn.
type ChatResult struct {
	ConversationID int64 `json:"conversation_id"`
	Response       any   `json:"response"`
}

// ReportUpload carries one fully read multipart upload into the analysis
// pipeline.
type ReportUpload struct {
	Filename string
	MimeType string
	Data     []byte
	Message  string
}

// AnalyzeResult is the reply to a report analysis turn.
type AnalyzeResult struct {
	ConversationID int64  `json:"conversation_id"`
	ReportID       int64  `json:"report_id"`
	Filename       string `json:"filename"`
	FileURL        string `json:"file_url"`
	Response       any    `json:"response"`
}

// ChatText runs one text exchange: persist the user turn, rebuild the
// context, call the model, persist the assistant turn. A failed model call
// leaves the already-persisted user turn in place; there is no rollback.
func (s *Service) ChatText(ctx context.Context, conversationID int64, userText string) (*ChatResult, error) {
	unlock := s.lockConversation(conversationID)
	defer unlock()

	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	if _, err := s.AddMessage(ctx, conversationID, models.RoleUser, userText); err != nil {
		return nil, err
	}

	// No pending message: the user turn just stored is already part of the
	// history the builder reads.
	turns, err := s.BuildContext(ctx, conversationID, "")
	if err != nil {
		return nil, err
	}
	outcome, err := s.gateway.TextExchange(ctx, turns)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddMessage(ctx, conversationID, models.RoleAssistant, outcome.Raw); err != nil {
		return nil, err
	}
	return &ChatResult{ConversationID: conversationID, Response: outcome.Response()}, nil
}

// AnalyzeReport runs one image exchange: validate, store bytes and
// metadata, persist the marker user turn, rebuild the context, call the
// model with the image attached, persist the assistant turn.
func (s *Service) AnalyzeReport(ctx context.Context, conversationID int64, up ReportUpload) (*AnalyzeResult, error) {
	unlock := s.lockConversation(conversationID)
	defer unlock()

	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	if !isAllowedMimeType(up.MimeType) {
		return nil, ErrInvalidFileType
	}
	if int64(len(up.Data)) > MaxReportBytes {
		return nil, ErrFileTooLarge
	}

	report, err := s.saveReport(ctx, conversationID, up)
	if err != nil {
		return nil, err
	}

	marker := fmt.Sprintf("[Image uploaded: %s | Report ID: %d] %s", up.Filename, report.ID, up.Message)
	if _, err := s.AddMessage(ctx, conversationID, models.RoleUser, marker); err != nil {
		return nil, err
	}

	turns, err := s.BuildContext(ctx, conversationID, "")
	if err != nil {
		return nil, err
	}
	outcome, err := s.gateway.ImageExchange(ctx, turns, up.Data, up.MimeType)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddMessage(ctx, conversationID, models.RoleAssistant, outcome.Raw); err != nil {
		return nil, err
	}
	return &AnalyzeResult{
		ConversationID: conversationID,
		ReportID:       report.ID,
		Filename:       up.Filename,
		FileURL:        "/uploads/" + report.StoredFilename,
		Response:       outcome.Response(),
	}, nil
}
