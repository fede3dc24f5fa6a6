package model

// TaskHTTPResponse is the envelope every failed request is answered with.
type TaskHTTPResponse struct {
	GenerationId string `json:"generation_id,omitempty"`

	Status string `json:"status"` // completed, failed

	Message string `json:"message,omitempty"`

	Redirect string `json:"redirect,omitempty"`
}

type SignInRequest struct {
	Token string `json:"token" binding:"required"`

	User UserInfo `json:"user"`
}

type UserInfo struct {
	Id string `json:"id"`

	Email string `json:"email"`

	Name string `json:"name"`
}

type ThemeRequest struct {
	Theme string `json:"theme" binding:"required,oneof=light dark system"`
}

type MergeRequest struct {
	ProductId string `json:"product_id" binding:"required"`

	CollectionId string `json:"collection_id" binding:"required"`

	ShotTypes []string `json:"shot_types"`

	Resolution string `json:"resolution"`

	AspectRatio string `json:"aspect_ratio"`
}

type EditPromptRequest struct {
	Prompt string `json:"prompt" binding:"required"`

	Metadata map[string]interface{} `json:"metadata"`
}

type RegenerateRequest struct {
	CollectionId string `json:"collection_id" binding:"required"`
}
