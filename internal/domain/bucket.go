package domain

import "time"

// BucketItem es una entrada de la lista compartida entre ambas cuentas.
type BucketItem struct {
	ItemID     string    `json:"item_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	Completed  bool      `json:"completed"`
	SharedWith []string  `json:"shared_with"`
}

// CompletedItem es una entrada cumplida, con su foto y notas opcionales.
type CompletedItem struct {
	CompletedID string    `json:"completed_id"`
	ItemID      string    `json:"item_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	PhotoBase64 string    `json:"photo_base64"`
	Notes       *string   `json:"notes,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
	CompletedBy string    `json:"completed_by"`
}
