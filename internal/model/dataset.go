package model

import "time"

// DatasetInfo is the summary returned after an upload. It is derived from the
// stored file on demand and never persisted on its own.
type DatasetInfo struct {
	FileID       string           `json:"file_id"`
	Filename     string           `json:"filename"`
	Shape        [2]int           `json:"shape"`
	Columns      []string         `json:"columns"`
	TotalColumns int              `json:"total_columns"`
	Preview      []map[string]any `json:"preview"`
	UploadTime   time.Time        `json:"upload_time"`
}
