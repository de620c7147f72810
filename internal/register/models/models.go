package models

import (
	"fmt"
	"io"
	"time"

	"github.com/vemurivi/CareerShotApi/internal/register/normalize"
)

// SkillEntry is one skill inside a category of the skills map.
type SkillEntry struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// UploadFile is one uploaded payload. Content is read exactly once, in
// submission order, and must be closed on every exit path.
type UploadFile struct {
	FileName string
	Size     int64
	Content  io.ReadCloser
}

// Submission is the parsed, already-authenticated registration request.
// It is transient: constructed per request and discarded after orchestration.
type Submission struct {
	Name        string
	Description string
	LinkedIn    string
	GitHub      string
	Skills      map[string][]SkillEntry
	Files       []UploadFile

	// IdempotencyKey, when non-empty, pins the row key across retries so a
	// resubmission after an object-store failure does not mint a duplicate
	// record.
	IdempotencyKey string
}

// Close releases every file stream. Safe to call more than once.
func (s *Submission) Close() {
	for i := range s.Files {
		if s.Files[i].Content != nil {
			_ = s.Files[i].Content.Close()
			s.Files[i].Content = nil
		}
	}
}

// Record is the metadata-store entity for one registration.
//
// Invariants:
//   - RowKey is unique within a PartitionKey
//   - PartitionKey is the upper-cased first character of Name
//   - Records are created once and never updated or deleted by this service
//
// CreatedAt and ETag are assigned by the store on create. ETag is the opaque
// optimistic-concurrency token; the create-only flow never checks it, but it
// is part of the entity contract.
type Record struct {
	PartitionKey string
	RowKey       string
	Name         string
	Description  string
	LinkedIn     string
	GitHub       string

	// SkillsEncoded is the skills map serialized to JSON.
	SkillsEncoded string

	// FileExtensions holds the original extension of every file the
	// submission uploaded, in submission order, so the record↔object
	// relation stays reconstructible from the record alone.
	FileExtensions []string

	CreatedAt time.Time
	ETag      string
}

// ExpectedObjectNames re-derives the object names this record's files were
// stored under. This is a computed relation, not enforced referential
// integrity: a record whose Name normalizes like another's points at the
// same objects.
func (r *Record) ExpectedObjectNames() []string {
	if r.Name == "" || len(r.FileExtensions) == 0 {
		return nil
	}
	base := normalize.ObjectBaseName(r.Name)
	names := make([]string, len(r.FileExtensions))
	for i, ext := range r.FileExtensions {
		names[i] = base + ext
	}
	return names
}

// Stage identifies a step of the registration state machine.
type Stage string

const (
	StageReceived        Stage = "received"
	StageValidated       Stage = "validated"
	StageNormalized      Stage = "normalized"
	StageMetadataWritten Stage = "metadata_written"
	StageObjectsWritten  Stage = "objects_written"
	StageComplete        Stage = "complete"
)

// StageError reports the stage a registration failed at. For object-write
// failures, Written and Total carry the k-of-n progress; files written before
// the failing one are never rolled back, so callers must treat failure as
// "metadata may already exist".
type StageError struct {
	Stage   Stage
	Written int
	Total   int
	Err     error
}

func (e *StageError) Error() string {
	if e.Stage == StageObjectsWritten && e.Total > 0 {
		return fmt.Sprintf("registration failed at %s (%d of %d objects written): %v",
			e.Stage, e.Written, e.Total, e.Err)
	}
	return fmt.Sprintf("registration failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result is returned to the caller on full success.
type Result struct {
	PartitionKey string   `json:"partition_key"`
	RowKey       string   `json:"row_key"`
	ObjectNames  []string `json:"objects"`
}
