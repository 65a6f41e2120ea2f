package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnnotationSource tags where an annotation came from.
type AnnotationSource string

const (
	SourceAI     AnnotationSource = "ai"
	SourceUser   AnnotationSource = "user"
	SourceSystem AnnotationSource = "system"
)

// Annotation geometry and source are immutable once written. Label, note and
// visibility edits create a successor record via the supersede protocol so
// the audit history stays readable.
type Annotation struct {
	Id           uuid.UUID
	SessionId    uuid.UUID
	ImageId      uuid.UUID
	Region       Region
	Label        string
	Confidence   *float64
	Source       AnnotationSource
	Note         string
	Visible      bool
	Supersedes   *uuid.UUID
	SupersededBy *uuid.UUID
	CreatedAt    time.Time
}

// IsSuperseded reports whether a newer version of this annotation exists.
func (a *Annotation) IsSuperseded() bool {
	return a.SupersededBy != nil
}
