package extraction

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run records one document pushed through the extraction engine.
type Run struct {
	ID            uuid.UUID       `json:"id"`
	SourceName    string          `json:"source_name"`
	Status        string          `json:"status"`
	Reason        string          `json:"reason"`
	SectionsFound []string        `json:"sections_found"`
	Counts        map[string]int  `json:"counts"`
	Tables        json.RawMessage `json:"tables,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Summary returns a copy of r without the table payload, as served by the
// list endpoint.
func (r *Run) Summary() *Run {
	s := *r
	s.Tables = nil
	return &s
}
