// Package normalize derives storage identifiers from user-supplied free text.
// Every function is pure; callers guarantee non-empty input.
package normalize

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// rowKeyNamespace salts idempotency-key row-key derivation. Fixed forever:
// changing it would break retry detection across deployments.
var rowKeyNamespace = uuid.MustParse("8b1dca3e-9f44-4e35-9d0e-6cb6cf1d9a1b")

// PartitionKey returns the upper-cased first character of name. This bounds
// partition cardinality to roughly the alphabet, which keeps range scans by
// first letter cheap and the scheme human-predictable. A non-alphabetic
// leading character is accepted as-is, upper-cased.
//
// name must be non-empty; the validator runs first.
func PartitionKey(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		panic("normalize: PartitionKey called with empty name")
	}
	return string(unicode.ToUpper(runes[0]))
}

// ObjectBaseName returns name lower-cased with all whitespace removed. It is
// the stable stem for every object a submission uploads. No collision suffix
// is added: two registrations whose names normalize identically overwrite
// each other's objects, last writer wins.
func ObjectBaseName(name string) string {
	if name == "" {
		panic("normalize: ObjectBaseName called with empty name")
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Extension returns fileName's original extension, leading dot included, or
// the empty string when there is none.
func Extension(fileName string) string {
	return filepath.Ext(fileName)
}

// ObjectName appends fileName's original extension (leading dot included) to
// the base name. Files without an extension map to the bare base name.
func ObjectName(base, fileName string) string {
	return base + Extension(fileName)
}

// NewRowKey returns a fresh universally-unique row key. Uniqueness needs no
// coordination, so concurrent submissions never collide, including identical
// names.
func NewRowKey() string {
	return uuid.NewString()
}

// DerivedRowKey maps an idempotency key to a stable row key (uuid v5), so a
// retried registration addresses the record its first attempt created.
func DerivedRowKey(idempotencyKey string) string {
	return uuid.NewSHA1(rowKeyNamespace, []byte(idempotencyKey)).String()
}
