package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/haojie06/visualgen-http/internal/model"
)

func generationPath(id string) string {
	return "/generations/" + url.PathEscape(id)
}

// CreateGeneration registers a pending generation for a product and collection.
func (c *Client) CreateGeneration(ctx context.Context, req model.CreateGenerationRequest) (*model.Generation, error) {
	var generation model.Generation
	if err := c.do(ctx, http.MethodPost, "/generations", req, &generation); err != nil {
		return nil, err
	}
	return &generation, nil
}

// MergePrompts combines product and design aesthetic analysis into per shot prompts.
// Overrides carry the user's edited prompts and win over the merged ones.
func (c *Client) MergePrompts(ctx context.Context, id string, req model.MergePromptsRequest) (*model.MergePromptsResponse, error) {
	var resp model.MergePromptsResponse
	if err := c.do(ctx, http.MethodPost, generationPath(id)+"/merge", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ExecuteGeneration(ctx context.Context, id string, req model.ExecuteGenerationRequest) (*model.ExecuteGenerationResponse, error) {
	var resp model.ExecuteGenerationResponse
	if err := c.do(ctx, http.MethodPost, generationPath(id)+"/execute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GenerationStatus(ctx context.Context, id string) (*model.GenerationStatusResponse, error) {
	var resp model.GenerationStatusResponse
	if err := c.do(ctx, http.MethodGet, generationPath(id)+"/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetGeneration(ctx context.Context, id string) (*model.Generation, error) {
	var generation model.Generation
	if err := c.do(ctx, http.MethodGet, generationPath(id), nil, &generation); err != nil {
		return nil, err
	}
	return &generation, nil
}

func (c *Client) ListGenerations(ctx context.Context, productId string) ([]model.Generation, error) {
	path := "/generations"
	if productId != "" {
		path += "?product_id=" + url.QueryEscape(productId)
	}
	var generations []model.Generation
	err := c.do(ctx, http.MethodGet, path, nil, &generations)
	return generations, err
}

func (c *Client) DeleteGeneration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, generationPath(id), nil, nil)
}
