package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Article represents an inventory article
type Article struct {
	ID            string    `json:"id" db:"id"`
	ArticleNumber int64     `json:"articleNumber" db:"article_number"`
	ArticleName   string    `json:"articleName" db:"article_name"`
	Unit          string    `json:"unit" db:"unit"`
	PackageSize   float64   `json:"packageSize" db:"package_size"`
	PurchasePrice float64   `json:"purchasePrice" db:"purchase_price"`
	SalesPrice    float64   `json:"salesPrice" db:"sales_price"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultUnit is stored when no unit is submitted
const DefaultUnit = "pcs"

// ValidUnits defines allowed article units
var ValidUnits = map[string]bool{
	"pcs": true, "kg": true, "g": true, "lb": true, "oz": true,
	"m": true, "cm": true, "mm": true, "ft": true, "in": true,
	"l": true, "ml": true, "gal": true, "qt": true, "pt": true,
	"set": true, "box": true, "pack": true, "dozen": true, "pair": true,
	"other": true,
}

// ArticleInput is the client-submitted body for create and update
type ArticleInput struct {
	ArticleNumber int64   `json:"articleNumber" validate:"required,gte=1"`
	ArticleName   string  `json:"articleName" validate:"required,max=200"`
	Unit          string  `json:"unit" validate:"omitempty,unit"`
	PackageSize   float64 `json:"packageSize" validate:"gte=0"`
	PurchasePrice float64 `json:"purchasePrice" validate:"gte=0,lte=9999999999.99"`
	SalesPrice    float64 `json:"salesPrice" validate:"gte=0,lte=9999999999.99"`
}

// Normalize trims text fields and rounds prices to cents
func (in *ArticleInput) Normalize() {
	in.ArticleName = strings.TrimSpace(in.ArticleName)
	in.Unit = strings.ToLower(strings.TrimSpace(in.Unit))
	if in.Unit == "" {
		in.Unit = DefaultUnit
	}
	in.PurchasePrice = Round2(in.PurchasePrice)
	in.SalesPrice = Round2(in.SalesPrice)
}

// Apply copies the mutable fields of the input onto the article
func (a *Article) Apply(in *ArticleInput) {
	a.ArticleNumber = in.ArticleNumber
	a.ArticleName = in.ArticleName
	a.Unit = in.Unit
	a.PackageSize = in.PackageSize
	a.PurchasePrice = in.PurchasePrice
	a.SalesPrice = in.SalesPrice
}

// FieldValue returns the value of a queryable field by its API name
func (a *Article) FieldValue(name string) any {
	switch name {
	case "articleNumber":
		return a.ArticleNumber
	case "articleName":
		return a.ArticleName
	case "unit":
		return a.Unit
	case "packageSize":
		return a.PackageSize
	case "purchasePrice":
		return a.PurchasePrice
	case "salesPrice":
		return a.SalesPrice
	case "createdAt":
		return a.CreatedAt
	}
	return nil
}

// ProfitMargin is the margin on the sales price in whole percent
func (a *Article) ProfitMargin() float64 {
	if a.PurchasePrice == 0 || a.SalesPrice == 0 {
		return 0
	}
	return math.Round((a.SalesPrice - a.PurchasePrice) / a.SalesPrice * 100)
}

// ProfitAmount is the absolute profit per unit
func (a *Article) ProfitAmount() float64 {
	if a.PurchasePrice == 0 || a.SalesPrice == 0 {
		return 0
	}
	return Round2(a.SalesPrice - a.PurchasePrice)
}

// Markup is the markup on the purchase price in whole percent
func (a *Article) Markup() float64 {
	if a.PurchasePrice == 0 || a.SalesPrice == 0 {
		return 0
	}
	return math.Round((a.SalesPrice - a.PurchasePrice) / a.PurchasePrice * 100)
}

// DisplayName renders "#<number> - <name>"
func (a *Article) DisplayName() string {
	return fmt.Sprintf("#%d - %s", a.ArticleNumber, a.ArticleName)
}

// ArticleDetail is an article with its derived values
type ArticleDetail struct {
	*Article
	ProfitMargin float64 `json:"profitMargin"`
	ProfitAmount float64 `json:"profitAmount"`
	Markup       float64 `json:"markup"`
	DisplayName  string  `json:"displayName"`
}

// NewArticleDetail computes the derived values for an article
func NewArticleDetail(a *Article) *ArticleDetail {
	return &ArticleDetail{
		Article:      a,
		ProfitMargin: a.ProfitMargin(),
		ProfitAmount: a.ProfitAmount(),
		Markup:       a.Markup(),
		DisplayName:  a.DisplayName(),
	}
}

// ArticleOverview holds aggregates over the whole article collection
type ArticleOverview struct {
	TotalArticles        int     `json:"totalArticles"`
	TotalInventoryValue  float64 `json:"totalInventoryValue"`
	AverageSalesPrice    float64 `json:"averageSalesPrice"`
	AveragePurchasePrice float64 `json:"averagePurchasePrice"`
	HighestSalesPrice    float64 `json:"highestSalesPrice"`
	LowestSalesPrice     float64 `json:"lowestSalesPrice"`
	TotalPackageSize     float64 `json:"totalPackageSize"`
}

// ArticleStats is the response of the article statistics endpoint
type ArticleStats struct {
	Overview          ArticleOverview `json:"overview"`
	PriceDistribution []Bucket        `json:"priceDistribution"`
	TopUnits          []Bucket        `json:"topUnits"`
	GeneratedAt       time.Time       `json:"generatedAt"`
}

// PriceBoundaries are the lower bounds of the sales price distribution buckets
var PriceBoundaries = []float64{0, 10, 50, 100, 500, 1000, 5000}

// Round2 rounds x to 2 decimal places
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
