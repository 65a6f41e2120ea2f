package dto

import (
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/pkg/visualrag"

	"github.com/google/uuid"
)

type RegionPayload struct {
	Type        string    `json:"type" validate:"required,oneof=bbox polygon point mask"`
	Coordinates []float64 `json:"coordinates" validate:"required,min=2"`
	Frame       string    `json:"format" validate:"required,oneof=pixel relative"`
	MaskRef     string    `json:"mask_ref"`
}

func (p RegionPayload) ToEntity() entity.Region {
	return entity.Region{
		Type:        entity.RegionType(p.Type),
		Coordinates: p.Coordinates,
		Frame:       entity.CoordinateFrame(p.Frame),
		MaskRef:     p.MaskRef,
	}
}

// AnalyzeRegionRequest targets the session's current image when image_id is
// omitted. The free-text question rides along for the caller's context; it
// is echoed back, not interpreted.
type AnalyzeRegionRequest struct {
	SessionId uuid.UUID     `json:"session_id" validate:"required"`
	ImageId   uuid.UUID     `json:"image_id"`
	Region    RegionPayload `json:"region" validate:"required"`
	Question  string        `json:"question"`
	TopK      int           `json:"top_k" validate:"gte=0,lte=50"`
}

type AnalyzeImageRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	ImageId   uuid.UUID `json:"image_id"`
	Mode      string    `json:"mode" validate:"omitempty,oneof=quick full rag_only"`
	TopK      int       `json:"top_k" validate:"gte=0,lte=50"`
}

type AnalysisResponse struct {
	ImageId  uuid.UUID         `json:"image_id"`
	Question string            `json:"question,omitempty"`
	Result   *visualrag.Result `json:"result"`
}

type EngineStatusResponse struct {
	Engine visualrag.Status `json:"engine"`
}
