package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a physical item offered for sale by its owner.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   string          `json:"productId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Currency    Currency        `json:"currency"`
	Images      []string        `json:"images"`
	Category    ProductCategory `json:"category"`
	OwnerID     uuid.UUID       `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewProduct creates a validated Product owned by ownerID.
// An empty category falls back to DefaultProductCategory.
func NewProduct(
	ownerID uuid.UUID,
	title, description string,
	price float64,
	currency Currency,
	images []string,
	category ProductCategory,
) (*Product, error) {
	if category == "" {
		category = DefaultProductCategory
	}

	now := time.Now().UTC()
	product := &Product{
		ID:          uuid.New(),
		ProductID:   NewExternalKey(ProductKeyPrefix, now),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Price:       price,
		Currency:    currency,
		Images:      images,
		Category:    category,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate checks if the Product has valid data.
func (p *Product) Validate() error {
	var errs ValidationErrors

	if p.ID == uuid.Nil {
		errs.Add("id", "cannot be empty")
	}
	if p.ProductID == "" {
		errs.Add("productId", "cannot be empty")
	}
	if p.OwnerID == uuid.Nil {
		errs.Add("createdBy", "cannot be empty")
	}

	validateListing(&errs, p.Title, p.Description, p.Price, p.Currency)

	if len(p.Images) == 0 {
		errs.Add("images", "must contain at least one image")
	}
	for _, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			errs.Add("images", "image URLs cannot be empty")
			break
		}
	}
	if !p.Category.IsValid() {
		errs.Add("category", "unknown product category")
	}

	return errs.Err()
}

// OwnedBy reports whether userID created the product.
func (p *Product) OwnedBy(userID uuid.UUID) bool {
	return p.OwnerID == userID
}
