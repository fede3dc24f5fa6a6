package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/haojie06/visualgen-http/internal/model"
)

func (c *Client) ListBrands(ctx context.Context) ([]model.Brand, error) {
	var brands []model.Brand
	err := c.do(ctx, http.MethodGet, "/brands", nil, &brands)
	return brands, err
}

func (c *Client) GetBrand(ctx context.Context, id string) (*model.Brand, error) {
	var brand model.Brand
	if err := c.do(ctx, http.MethodGet, "/brands/"+url.PathEscape(id), nil, &brand); err != nil {
		return nil, err
	}
	return &brand, nil
}

func (c *Client) CreateBrand(ctx context.Context, brand model.Brand) (*model.Brand, error) {
	var created model.Brand
	if err := c.do(ctx, http.MethodPost, "/brands", brand, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateBrand(ctx context.Context, id string, brand model.Brand) (*model.Brand, error) {
	var updated model.Brand
	if err := c.do(ctx, http.MethodPut, "/brands/"+url.PathEscape(id), brand, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteBrand(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/brands/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListCollections(ctx context.Context, brandId string) ([]model.Collection, error) {
	var collections []model.Collection
	err := c.do(ctx, http.MethodGet, "/brands/"+url.PathEscape(brandId)+"/collections", nil, &collections)
	return collections, err
}

func (c *Client) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	var collection model.Collection
	if err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(id), nil, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (c *Client) CreateCollection(ctx context.Context, brandId string, collection model.Collection) (*model.Collection, error) {
	var created model.Collection
	if err := c.do(ctx, http.MethodPost, "/brands/"+url.PathEscape(brandId)+"/collections", collection, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateCollection(ctx context.Context, id string, collection model.Collection) (*model.Collection, error) {
	var updated model.Collection
	if err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(id), collection, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(id), nil, nil)
}

// AnalyzeCollection extracts the design aesthetic from the collection's reference images.
func (c *Client) AnalyzeCollection(ctx context.Context, id string, force bool) (*model.Collection, error) {
	var analyzed model.Collection
	err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(id)+"/analyze", model.AnalyzeRequest{ForceReanalyze: force}, &analyzed)
	if err != nil {
		return nil, err
	}
	return &analyzed, nil
}

func (c *Client) ListProducts(ctx context.Context, brandId string) ([]model.Product, error) {
	var products []model.Product
	err := c.do(ctx, http.MethodGet, "/brands/"+url.PathEscape(brandId)+"/products", nil, &products)
	return products, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) CreateProduct(ctx context.Context, brandId string, product model.Product) (*model.Product, error) {
	var created model.Product
	if err := c.do(ctx, http.MethodPost, "/brands/"+url.PathEscape(brandId)+"/products", product, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, product model.Product) (*model.Product, error) {
	var updated model.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), product, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// AnalyzeProduct runs the photo analysis of a product.
func (c *Client) AnalyzeProduct(ctx context.Context, id string, force bool) (*model.Product, error) {
	var analyzed model.Product
	err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(id)+"/analyze", model.AnalyzeRequest{ForceReanalyze: force}, &analyzed)
	if err != nil {
		return nil, err
	}
	return &analyzed, nil
}
