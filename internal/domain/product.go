package domain

import "time"

type Product struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Price       float64   `bson:"price" json:"price"`
	Category    string    `bson:"category" json:"category"`
	ArtisanID   string    `bson:"artisan_id" json:"artisan_id"`
	Stock       int       `bson:"stock" json:"stock"`
	Trending    bool      `bson:"trending" json:"trending"`
	Materials   []string  `bson:"materials,omitempty" json:"materials,omitempty"`
	Dimensions  string    `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	Weight      string    `bson:"weight,omitempty" json:"weight,omitempty"`
	Images      []string  `bson:"images" json:"images"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// ProductPatch carries the fields an artisan may change on an existing product.
// Nil fields are left untouched.
type ProductPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
	Trending    *bool     `json:"trending,omitempty"`
	Materials   *[]string `json:"materials,omitempty"`
	Dimensions  *string   `json:"dimensions,omitempty"`
	Weight      *string   `json:"weight,omitempty"`
	Images      *[]string `json:"images,omitempty"`
}

func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Trending != nil {
		product.Trending = *p.Trending
	}
	if p.Materials != nil {
		product.Materials = append([]string(nil), (*p.Materials)...)
	}
	if p.Dimensions != nil {
		product.Dimensions = *p.Dimensions
	}
	if p.Weight != nil {
		product.Weight = *p.Weight
	}
	if p.Images != nil {
		product.Images = append([]string(nil), (*p.Images)...)
	}
}

func (p ProductPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return Invalid("name must not be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return Invalid("price must not be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return Invalid("stock must not be negative")
	}
	return nil
}

// Validate checks the invariants of a product before it is stored.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return Invalid("name must not be empty")
	case p.ArtisanID == "":
		return Invalid("artisan_id is required")
	case p.Price < 0:
		return Invalid("price must not be negative")
	case p.Stock < 0:
		return Invalid("stock must not be negative")
	}
	return nil
}
