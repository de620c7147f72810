package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/vemurivi/CareerShotApi/internal/register/models"
	dErrors "github.com/vemurivi/CareerShotApi/pkg/domain-errors"
)

const (
	// multipartMemory is how much of the form http keeps in memory before
	// spilling parts to disk.
	multipartMemory = 10 << 20 // 10 MiB

	// maxRequestBytes caps the whole request body.
	maxRequestBytes = 256 << 20 // 256 MiB

	headerIdempotencyKey = "Idempotency-Key"
)

// parseSubmission builds a Submission from a multipart/form-data request.
//
// Expected fields: name, description, linkedin, github, skills (a JSON
// object mapping category to entries), and zero or more "files" parts. The
// returned Submission owns the file streams; callers must Close it.
func parseSubmission(r *http.Request) (*models.Submission, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, dErrors.New(dErrors.CodeValidation, "content type must be multipart/form-data")
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeBadRequest, "malformed multipart body", err)
	}

	sub := &models.Submission{
		Name:           r.FormValue("name"),
		Description:    r.FormValue("description"),
		LinkedIn:       r.FormValue("linkedin"),
		GitHub:         r.FormValue("github"),
		IdempotencyKey: strings.TrimSpace(r.Header.Get(headerIdempotencyKey)),
	}

	if raw := r.FormValue("skills"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sub.Skills); err != nil {
			return nil, dErrors.Wrap(dErrors.CodeValidation, "skills must be a JSON object of categories", err)
		}
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			content, err := header.Open()
			if err != nil {
				sub.Close()
				return nil, dErrors.Wrap(dErrors.CodeBadRequest, "unreadable file part", err)
			}
			sub.Files = append(sub.Files, models.UploadFile{
				FileName: header.Filename,
				Size:     header.Size,
				Content:  content,
			})
		}
	}

	return sub, nil
}
