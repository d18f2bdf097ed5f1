package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Currency is one of the fixed set of currencies accepted for listings.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyPLN Currency = "PLN"
)

// Currencies lists every supported currency.
var Currencies = []Currency{CurrencyEUR, CurrencyUSD, CurrencyPLN}

// IsValid reports whether c is a supported currency.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyPLN:
		return true
	}
	return false
}

// ProductCategory classifies a product.
type ProductCategory string

const (
	ProductCategoryDrone     ProductCategory = "DRONE"
	ProductCategoryCamera    ProductCategory = "CAMERA"
	ProductCategoryAccessory ProductCategory = "ACCESSORY"
	ProductCategoryPart      ProductCategory = "PART"
	ProductCategoryOther     ProductCategory = "OTHER"
)

// DefaultProductCategory is used when a product is created without a category.
const DefaultProductCategory = ProductCategoryDrone

// IsValid reports whether c is a known product category.
func (c ProductCategory) IsValid() bool {
	switch c {
	case ProductCategoryDrone, ProductCategoryCamera, ProductCategoryAccessory,
		ProductCategoryPart, ProductCategoryOther:
		return true
	}
	return false
}

// ServiceCategory discriminates the detail group carried by a Service.
type ServiceCategory string

const (
	ServiceCategoryService ServiceCategory = "SERVICE"
	ServiceCategoryEvent   ServiceCategory = "EVENT"
)

// IsValid reports whether c is a known service category.
func (c ServiceCategory) IsValid() bool {
	return c == ServiceCategoryService || c == ServiceCategoryEvent
}

// Weekday is a day on which a regular service is available.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// IsValid reports whether d names a day of the week.
func (d Weekday) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// External key prefixes.
const (
	ProductKeyPrefix = "product"
	ServiceKeyPrefix = "service"
)

const keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewExternalKey builds a public listing key of the form
// <prefix>_<unix millis>_<9 random base36 characters>.
func NewExternalKey(prefix string, now time.Time) string {
	var b strings.Builder
	for range 9 {
		b.WriteByte(keyAlphabet[rand.IntN(len(keyAlphabet))])
	}
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), b.String())
}

// validateListing checks the fields shared by products and services.
func validateListing(errs *ValidationErrors, title, description string, price float64, currency Currency) {
	if strings.TrimSpace(title) == "" {
		errs.Add("title", "cannot be empty")
	}
	if strings.TrimSpace(description) == "" {
		errs.Add("description", "cannot be empty")
	}
	if price < 0 {
		errs.Add("price", "must be greater than or equal to 0")
	}
	if !currency.IsValid() {
		errs.Add("currency", "must be one of EUR, USD, PLN")
	}
}
