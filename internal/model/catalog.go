package model

import "time"

type Brand struct {
	Id string `json:"id"`

	Name string `json:"name" binding:"required"`

	Description string `json:"description,omitempty"`

	LogoURL string `json:"logo_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Collection is a design aesthetic: a named style profile applied to a
// brand's product shoots.
type Collection struct {
	Id string `json:"id"`

	BrandId string `json:"brand_id"`

	Name string `json:"name" binding:"required"`

	ReferenceImageURLs []string `json:"reference_image_urls,omitempty"`

	Analysis *DesignAesthetic `json:"analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type DesignAesthetic struct {
	Background string `json:"background,omitempty"`

	Lighting string `json:"lighting,omitempty"`

	Props []string `json:"props,omitempty"`

	Mood string `json:"mood,omitempty"`

	ColorPalette []string `json:"color_palette,omitempty"`
}

type Product struct {
	Id string `json:"id"`

	BrandId string `json:"brand_id"`

	Name string `json:"name" binding:"required"`

	ImageURLs []string `json:"image_urls,omitempty"`

	Analysis map[string]interface{} `json:"analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type AnalyzeRequest struct {
	ForceReanalyze bool `json:"force_reanalyze"`
}
