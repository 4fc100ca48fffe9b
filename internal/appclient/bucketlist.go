package appclient

import (
	"context"
	"net/http"
	"net/url"

	"memory-makers/internal/domain"
)

// BucketList obtiene los items activos compartidos con la pareja.
func (c *Client) BucketList(ctx context.Context, token string) ([]domain.BucketItem, error) {
	var out []domain.BucketItem
	err := c.do(ctx, http.MethodGet, "/api/bucketlist", token, nil, nil, &out)
	return out, err
}

// CreateBucketItem agrega un item a la lista compartida.
func (c *Client) CreateBucketItem(ctx context.Context, token, title, category string) (domain.BucketItem, error) {
	var out domain.BucketItem
	err := c.do(ctx, http.MethodPost, "/api/bucketlist", token, map[string]string{
		"title":    title,
		"category": category,
	}, nil, &out)
	return out, err
}

// DeleteBucketItem elimina un item de la lista.
func (c *Client) DeleteBucketItem(ctx context.Context, token, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/api/bucketlist/"+url.PathEscape(itemID), token, nil, nil, nil)
}

// CompleteBucketItem marca un item como cumplido con foto y notas opcionales.
func (c *Client) CompleteBucketItem(ctx context.Context, token, itemID, photoBase64, notes string) (domain.CompletedItem, error) {
	body := map[string]any{
		"item_id":      itemID,
		"photo_base64": photoBase64,
	}
	if notes != "" {
		body["notes"] = notes
	}
	var out domain.CompletedItem
	err := c.do(ctx, http.MethodPost, "/api/bucketlist/complete", token, body, nil, &out)
	return out, err
}

// CompletedItems obtiene la galería de items cumplidos de ambas cuentas.
func (c *Client) CompletedItems(ctx context.Context, token string) ([]domain.CompletedItem, error) {
	var out []domain.CompletedItem
	err := c.do(ctx, http.MethodGet, "/api/completed", token, nil, nil, &out)
	return out, err
}
