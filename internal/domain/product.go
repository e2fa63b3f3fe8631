package domain

import "time"

// ProductStatus is the lifecycle state of a catalog listing.
type ProductStatus string

const (
	ProductStatusListed ProductStatus = "listed"
	ProductStatusDraft  ProductStatus = "draft"
	ProductStatusSold   ProductStatus = "sold"
)

// Product represents a digital collectible in the storefront catalog
type Product struct {
	ProductID   string        `json:"productId" bson:"productId"`
	Name        string        `json:"name" bson:"name"`
	Image       string        `json:"image" bson:"image"`
	Category    string        `json:"category" bson:"category"`
	Description string        `json:"description" bson:"description"`
	PriceTon    float64       `json:"priceTon" bson:"priceTon"`
	Status      ProductStatus `json:"status" bson:"status"`
	Views       int64         `json:"views" bson:"views"`
	MintDate    string        `json:"mintDate" bson:"mintDate"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// ProductUpdate carries a partial update; nil fields are left untouched.
// Identity and metrics fields are deliberately absent: productId is immutable
// and views move only through the view-counter increment.
type ProductUpdate struct {
	Name        *string        `json:"name,omitempty" bson:"name,omitempty"`
	Image       *string        `json:"image,omitempty" bson:"image,omitempty"`
	Category    *string        `json:"category,omitempty" bson:"category,omitempty"`
	Description *string        `json:"description,omitempty" bson:"description,omitempty"`
	PriceTon    *float64       `json:"priceTon,omitempty" bson:"priceTon,omitempty"`
	Status      *ProductStatus `json:"status,omitempty" bson:"status,omitempty"`
	MintDate    *string        `json:"mintDate,omitempty" bson:"mintDate,omitempty"`
}
