package model

import "time"

type GenerationStatus string

const (
	GenerationStatusPending    GenerationStatus = "pending"
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// Terminal reports whether no further transition is expected.
func (s GenerationStatus) Terminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed
}

// Generation is the backend record of one batch of images for a product
// under a design aesthetic. The service only ever holds a cached copy.
type Generation struct {
	Id string `json:"id"`

	ProductId string `json:"product_id"`

	CollectionId string `json:"collection_id"`

	Status GenerationStatus `json:"status"`

	MergedPrompts map[string]MergedPrompt `json:"merged_prompts,omitempty"`

	VisualOutputs []VisualOutput `json:"visual_outputs,omitempty"`

	Resolution string `json:"resolution,omitempty"`

	AspectRatio string `json:"aspect_ratio,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// MergedPrompt is the per shot type payload produced by combining the product
// analysis with the design aesthetic analysis.
type MergedPrompt struct {
	Prompt string `json:"prompt"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// VisualOutput is one image slot of a generation batch.
type VisualOutput struct {
	Type string `json:"type"` // duo, solo, flatlay_front ...

	Status GenerationStatus `json:"status"`

	ImageURL string `json:"image_url,omitempty"` // set iff completed

	Error string `json:"error,omitempty"` // set iff failed

	Index int `json:"index"`

	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

type CreateGenerationRequest struct {
	ProductId string `json:"product_id"`

	CollectionId string `json:"collection_id"`

	ShotTypes []string `json:"shot_types,omitempty"`

	Resolution string `json:"resolution,omitempty"`

	AspectRatio string `json:"aspect_ratio,omitempty"`
}

type MergePromptsRequest struct {
	ShotTypes []string `json:"shot_types,omitempty"`

	Overrides map[string]MergedPrompt `json:"overrides,omitempty"`
}

type MergePromptsResponse struct {
	GenerationId string `json:"generation_id"`

	MergedPrompts map[string]MergedPrompt `json:"merged_prompts"`
}

type ExecuteGenerationRequest struct {
	ShotTypes []string `json:"shot_types,omitempty"`

	Resolution string `json:"resolution,omitempty"`

	AspectRatio string `json:"aspect_ratio,omitempty"`
}

type ExecuteGenerationResponse struct {
	GenerationId string `json:"generation_id"`

	Status GenerationStatus `json:"status"`

	VisualOutputs []VisualOutput `json:"visual_outputs,omitempty"`
}

type GenerationStatusResponse struct {
	GenerationId string `json:"generation_id"`

	Status GenerationStatus `json:"status"`

	Completed bool `json:"completed"`

	VisualOutputs []VisualOutput `json:"visual_outputs"`
}
