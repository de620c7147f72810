package handler

import (
	"encoding/json"
	"time"

	"github.com/vemurivi/CareerShotApi/internal/register/models"
)

// RecordResponse is the HTTP shape of a stored registration record.
type RecordResponse struct {
	PartitionKey string                         `json:"partition_key"`
	RowKey       string                         `json:"row_key"`
	Name         string                         `json:"name"`
	Description  string                         `json:"description,omitempty"`
	LinkedIn     string                         `json:"linkedin,omitempty"`
	GitHub       string                         `json:"github,omitempty"`
	Skills       map[string][]models.SkillEntry `json:"skills,omitempty"`
	Objects      []string                       `json:"objects,omitempty"`
	CreatedAt    time.Time                      `json:"created_at"`
	ETag         string                         `json:"etag,omitempty"`
}

// FromRecord converts a stored record to its HTTP shape. The skills JSON is
// decoded best-effort; a record with corrupt skills still lists.
func FromRecord(rec *models.Record) *RecordResponse {
	resp := &RecordResponse{
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		Name:         rec.Name,
		Description:  rec.Description,
		LinkedIn:     rec.LinkedIn,
		GitHub:       rec.GitHub,
		Objects:      rec.ExpectedObjectNames(),
		CreatedAt:    rec.CreatedAt,
		ETag:         rec.ETag,
	}
	if rec.SkillsEncoded != "" {
		_ = json.Unmarshal([]byte(rec.SkillsEncoded), &resp.Skills)
	}
	return resp
}

// ListResponse is the HTTP response for a partition listing.
type ListResponse struct {
	PartitionKey string            `json:"partition_key"`
	Records      []*RecordResponse `json:"records"`
}

// RegisterFailureResponse augments the error body with the stage the
// registration failed at and how far the object writes got. Clients need
// this to reason about partially persisted state.
type RegisterFailureResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Stage            string `json:"stage"`
	ObjectsWritten   int    `json:"objects_written,omitempty"`
	ObjectsTotal     int    `json:"objects_total,omitempty"`
}
