package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item owned by a user. SellerName is a
// denormalized snapshot of the owner's display name taken at create/update
// time; it is not re-synced when the owner renames themselves. ImageURL and
// ImageID are set together or not at all.
type Product struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	OwnerID          uint            `json:"owner_id" gorm:"index;not null"`
	SellerName       string          `json:"seller_name" gorm:"type:varchar(100);not null"`
	Name             string          `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Category         string          `json:"category" gorm:"type:varchar(100);not null"`
	ShortDescription string          `json:"short_description" gorm:"type:text;not null"`
	LongDescription  string          `json:"long_description" gorm:"type:text"`
	Price            decimal.Decimal `json:"price" gorm:"type:decimal(16,2);not null"`
	ImageURL         string          `json:"image_url,omitempty" gorm:"type:text"`
	ImageID          string          `json:"image_id,omitempty" gorm:"type:varchar(255)"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HasImage reports whether the product references a remote image
func (p *Product) HasImage() bool {
	return p.ImageID != ""
}

// ProductDetail holds the list-valued text fields of a product. Each column
// stores an ordered sequence of lines joined with newlines; a product has
// exactly one detail row, cascade-deleted with the parent.
type ProductDetail struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	ProductID      uint      `json:"product_id" gorm:"uniqueIndex;not null"`
	Product        *Product  `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Specifications string    `json:"specifications" gorm:"type:text"`
	Applications   string    `json:"applications" gorm:"type:text"`
	Packaging      string    `json:"packaging" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JoinLines encodes an ordered list of free-text lines for storage
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// SplitLines decodes a stored column back into its ordered list.
// An empty column decodes to an empty list, not [""].
func SplitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
