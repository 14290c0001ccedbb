package smartrule

import "github.com/merchflow/storefront/internal/models"

// PriceDTO is the public pricing projection.
type PriceDTO struct {
	Original    float64  `json:"original"`
	Discounted  *float64 `json:"discounted,omitempty"`
	Currency    string   `json:"currency"`
	HasDiscount bool     `json:"hasDiscount"`
}

// StockDTO exposes availability without revealing quantities.
type StockDTO struct {
	Available bool `json:"available"`
}

// ProductDTO is the public product projection returned to storefront
// callers. It is an allow-list: cost, supplier, and margin data never
// cross this boundary.
type ProductDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Price       PriceDTO `json:"price"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	SKU         string   `json:"sku"`
	Stock       StockDTO `json:"stock"`
}

// ToDTO projects one catalog record onto the public shape.
func ToDTO(product models.Product) ProductDTO {
	hasDiscount := product.DiscountedPrice != nil && *product.DiscountedPrice < product.SellingPrice

	available := false
	for _, location := range product.Inventory {
		if location.Quantity > 0 {
			available = true
			break
		}
	}

	images := make([]string, 0, len(product.Images))
	images = append(images, product.Images...)
	tags := make([]string, 0, len(product.Tags))
	tags = append(tags, product.Tags...)

	return ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Images:      images,
		Price: PriceDTO{
			Original:    product.SellingPrice,
			Discounted:  product.DiscountedPrice,
			Currency:    product.Currency,
			HasDiscount: hasDiscount,
		},
		Category: product.CategoryID,
		Tags:     tags,
		SKU:      product.SKU,
		Stock:    StockDTO{Available: available},
	}
}

// ToDTOs projects a record list onto the public shape.
func ToDTOs(products []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for _, product := range products {
		dtos = append(dtos, ToDTO(product))
	}
	return dtos
}
