package consult

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dolo/internal/models"
)

// MaxReportBytes is the upload size ceiling.
const MaxReportBytes = 5 * 1024 * 1024

// AllowedMimeTypes lists the accepted report image types.
var AllowedMimeTypes = []string{"image/png", "image/jpeg", "image/jpg", "image/webp"}

func isAllowedMimeType(mimeType string) bool {
	for _, allowed := range AllowedMimeTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// storedFilename derives a collision-resistant name from the upload time
// and the client-supplied filename. Global uniqueness is still enforced by
// the reports table, not trusted to this generator.
func storedFilename(originalName string, now time.Time) string {
	safe := strings.ReplaceAll(filepath.Base(originalName), " ", "_")
	return fmt.Sprintf("%d_%s", now.Unix(), safe)
}

// saveReport writes the bytes to the upload area and records the metadata
// row. Created exactly once per upload; never mutated.
func (s *Service) saveReport(ctx context.Context, conversationID int64, up ReportUpload) (*models.Report, error) {
	now := time.Now().UTC()
	stored := storedFilename(up.Filename, now)
	path := filepath.Join(s.uploadDir, stored)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, up.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write report file: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (conversation_id, original_filename, stored_filename, file_path, mime_type, file_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conversationID, up.Filename, stored, path, up.MimeType, int64(len(up.Data)), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("report id: %w", err)
	}
	return &models.Report{
		ID:               id,
		ConversationID:   conversationID,
		OriginalFilename: up.Filename,
		StoredFilename:   stored,
		FilePath:         path,
		MimeType:         up.MimeType,
		FileSize:         int64(len(up.Data)),
		CreatedAt:        now,
	}, nil
}

// ListReports returns a conversation's reports, newest first. Propagates
// sql.ErrNoRows when the conversation does not exist.
func (s *Service) ListReports(ctx context.Context, conversationID int64) ([]*models.Report, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, original_filename, stored_filename, file_path, mime_type, file_size, created_at
		 FROM reports WHERE conversation_id = ? ORDER BY created_at DESC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		r := new(models.Report)
		if err := rows.Scan(&r.ID, &r.ConversationID, &r.OriginalFilename, &r.StoredFilename, &r.FilePath, &r.MimeType, &r.FileSize, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
