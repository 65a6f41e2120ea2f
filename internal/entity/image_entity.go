package entity

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageType is the modality tag of a loaded image.
type ImageType string

const (
	ImageTypeCXR   ImageType = "CXR"
	ImageTypeKUB   ImageType = "KUB"
	ImageTypeEKG   ImageType = "EKG"
	ImageTypeCT    ImageType = "CT"
	ImageTypeMRI   ImageType = "MRI"
	ImageTypeDICOM ImageType = "DICOM"
	ImageTypeOther ImageType = "Other"
)

// Image is immutable once created; re-analysis produces new annotations,
// never image mutation.
type Image struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Path      string
	Type      ImageType
	Width     int
	Height    int
	CreatedAt time.Time
}

// DetectImageType guesses the modality from the file name. DICOM containers
// are recognized by extension; everything else defaults to CXR since chest
// films are the dominant input, matching the reference index.
func DetectImageType(path string) ImageType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcm", ".dicom":
		return ImageTypeDICOM
	case ".png", ".jpg", ".jpeg":
		return ImageTypeCXR
	default:
		return ImageTypeOther
	}
}
