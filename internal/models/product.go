package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is one catalog item owned by an organization.
type Product struct {
	ID             string `gorm:"type:varchar(64);primaryKey"`      // UUID primary key.
	OrganizationID string `gorm:"type:varchar(64);not null;index"`  // Tenant scope.
	Name           string `gorm:"type:varchar(255);not null;index"` // Display name.
	Slug           string `gorm:"type:varchar(255);index"`          // URL slug.
	Description    string `gorm:"type:text"`                        // Long description.
	SKU            string `gorm:"type:varchar(128);index"`          // Stock keeping unit.

	Images datatypes.JSONSlice[string] `gorm:"type:json"` // Ordered image URLs.
	Tags   datatypes.JSONSlice[string] `gorm:"type:json"` // Free-form tags.

	SellingPrice    float64  `gorm:"not null;default:0"`  // List price.
	DiscountedPrice *float64 `gorm:""`                    // Active discount price, nil when none.
	Currency        string   `gorm:"type:varchar(8)"`     // ISO currency code.
	CostPrice       float64  `gorm:"not null;default:0"`  // Purchase cost, internal only.
	SupplierID      string   `gorm:"type:varchar(64)"`    // Supplier reference, internal only.

	CategoryID string `gorm:"type:varchar(64);index"` // Category reference.
	BrandID    string `gorm:"type:varchar(64);index"` // Brand reference.

	SalesCount int64      `gorm:"not null;default:0;index"` // Lifetime units sold.
	LastSold   *time.Time `gorm:"index"`                    // Most recent sale, nil when never sold.

	IsActive bool `gorm:"not null;default:true;index"` // Whether the product is published.

	Inventory []InventoryLocation `gorm:"foreignKey:ProductID"` // Per-location stock rows.

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"`       // Last update timestamp.
	DeletedAt gorm.DeletedAt `gorm:"index"`                         // Soft delete marker.
}

// TableName sets the products table name.
func (Product) TableName() string { return "products" }

// InventoryLocation tracks on-hand quantity for one product at one location.
type InventoryLocation struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`        // Primary key.
	ProductID string `gorm:"type:varchar(64);not null;index"` // Owning product.
	Location  string `gorm:"type:varchar(128)"`               // Warehouse or store code.
	Quantity  int64  `gorm:"not null;default:0"`              // Units on hand.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName sets the inventory table name.
func (InventoryLocation) TableName() string { return "inventory_locations" }
