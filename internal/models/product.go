package models

import (
	"time"

	"github.com/google/uuid"
)

var ProductCategories = []string{
	"Electronics",
	"Clothing",
	"Books",
	"Home & Garden",
	"Sports & Outdoors",
	"Toys & Games",
	"Automotive",
	"Health & Beauty",
	"Furniture",
	"Other",
}

var ProductConditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

func ValidCategory(category string) bool {
	for _, c := range ProductCategories {
		if c == category {
			return true
		}
	}

	return false
}

func ValidCondition(condition string) bool {
	for _, c := range ProductConditions {
		if c == condition {
			return true
		}
	}

	return false
}

type Product struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Condition   string    `json:"condition"`
	Price       float64   `json:"price"`
	Location    string    `json:"location,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Images      []string  `json:"images,omitempty"`
	IsAvailable bool      `json:"is_available"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Seller      *User     `json:"seller,omitempty"`
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Category    string   `json:"category" validate:"required"`
	Condition   string   `json:"condition,omitempty"`
	Price       float64  `json:"price" validate:"gte=0"`
	Location    string   `json:"location,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Images      []string `json:"images,omitempty"`
}

type UpdateProductRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    *string   `json:"category,omitempty"`
	Condition   *string   `json:"condition,omitempty"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Location    *string   `json:"location,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	IsAvailable *bool     `json:"is_available,omitempty"`
}

// ProductFilter narrows and orders catalog listings. SortBy / SortOrder are
// whitelisted in the repository, never interpolated from raw input.
type ProductFilter struct {
	Search        string
	Category      string
	Condition     string
	SellerID      *uuid.UUID
	MinPrice      *float64
	MaxPrice      *float64
	OnlyAvailable bool
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}
