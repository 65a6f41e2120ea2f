package dto

import "github.com/google/uuid"

// PublishEmbedImageMessage asks the background consumer to warm the
// embedding cache for a freshly attached image.
type PublishEmbedImageMessage struct {
	ImageId uuid.UUID `json:"image_id"`
}
