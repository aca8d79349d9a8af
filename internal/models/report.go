package models

import "time"

// Report records one uploaded medical-report image. The bytes live on disk
// under StoredFilename; the row is created once at upload time and never
// mutated. StoredFilename is globally unique, enforced by the store.
type Report struct {
	ID               int64     `json:"id"`
	ConversationID   int64     `json:"conversation_id"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	FilePath         string    `json:"file_path"`
	MimeType         string    `json:"mime_type"`
	FileSize         int64     `json:"file_size"`
	CreatedAt        time.Time `json:"created_at"`
}
