package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the shop catalog.
//
// ImageKey and Image are set together: the key addresses the asset in the
// blob store, the URL is what clients load. Neither is derived from the other.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;check:price >= 0" json:"price"`
	Quantity    int             `gorm:"type:int;not null;default:0;check:quantity >= 0" json:"quantity"`
	ImageKey    *string         `gorm:"type:varchar(255)" json:"-"`
	Image       *string         `gorm:"type:varchar(512)" json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasImage reports whether an asset is attached.
func (p *Product) HasImage() bool {
	return p.ImageKey != nil && *p.ImageKey != ""
}

// SetImage attaches a stored asset.
func (p *Product) SetImage(key, url string) {
	p.ImageKey = &key
	p.Image = &url
}

// ClearImage detaches the asset reference.
func (p *Product) ClearImage() {
	p.ImageKey = nil
	p.Image = nil
}
