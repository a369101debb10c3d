package store

import "time"

// RunMeta is the metadata kept for a completed run.
type RunMeta struct {
	Goal      string   `json:"goal"`
	Artifacts []string `json:"artifacts"` // artifact names in execution order
}

// RunRecord is the persisted summary of one completed run.
type RunRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Meta      RunMeta   `json:"meta"`
	CreatedAt time.Time `json:"created_at"`
}
