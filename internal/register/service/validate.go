package service

import (
	"fmt"
	"strings"

	"github.com/vemurivi/CareerShotApi/internal/register/models"
	dErrors "github.com/vemurivi/CareerShotApi/pkg/domain-errors"
)

// ValidateSubmission checks structural invariants of a parsed submission
// before any write is attempted. It deliberately does not validate LinkedIn
// or GitHub as URLs, does not restrict the skill-level vocabulary, and does
// not limit file count or size; the transport layer owns size limits.
func ValidateSubmission(sub *models.Submission) error {
	if sub == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "submission is nil")
	}
	if strings.TrimSpace(sub.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	for i, f := range sub.Files {
		if f.FileName == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("file %d has no name", i))
		}
		if f.Content == nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("file %q has no content", f.FileName))
		}
	}
	return nil
}
