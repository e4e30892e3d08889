// Package model defines domain entities used by services and repositories.
package model

import "time"

// Admin is a back-office account. Only IsAdmin accounts may log in.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

// Category groups products on the storefront. Slug is the external key.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ColorVariant is a named color offered for a product.
type ColorVariant struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Product is a catalog entry. Category is a free-text label, not a reference
// to the categories table.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Discount    float64        `json:"discount"`
	FinalPrice  float64        `json:"finalPrice"` // always derived from Price and Discount
	Description string         `json:"description"`
	ImageData   string         `json:"imageData"` // data URL or external image URL
	Enabled     bool           `json:"enabled"`
	Sizes       []string       `json:"sizes"`
	Colors      []ColorVariant `json:"colors"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ProductStats summarises the catalog for the dashboard.
type ProductStats struct {
	TotalProducts   int      `json:"totalProducts"`
	EnabledProducts int      `json:"enabledProducts"`
	Categories      []string `json:"categories"`
}

// SiteSettingsID is the primary key of the only settings row.
const SiteSettingsID = 1

// SiteSettings is the singleton storefront configuration.
type SiteSettings struct {
	HomepageEnabled     bool   `json:"homepageEnabled"`
	ProductsPageEnabled bool   `json:"productsPageEnabled"`
	SiteName            string `json:"siteName"`
	SiteDescription     string `json:"siteDescription"`
	DriveFolderID       string `json:"driveFolderId"`
}

// DefaultSiteSettings returns the values written when the row is first created.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		HomepageEnabled:     true,
		ProductsPageEnabled: true,
		SiteName:            "Mohona Textiles",
		SiteDescription:     "Premium quality clothing for men and women",
		DriveFolderID:       "1ms1u6tuw22Bsl1SsGpR1zXtkR_zsgddx",
	}
}

// Session is an authenticated admin login held in process memory.
type Session struct {
	Token     string
	AdminID   string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LoginResult is returned to a client after a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Admin     `json:"user"`
}
