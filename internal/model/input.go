package model

// ProductInput carries the fields accepted when creating a product.
// A nil Enabled, Sizes or Colors means "use the default".
type ProductInput struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Discount    float64        `json:"discount"`
	Description string         `json:"description"`
	Enabled     *bool          `json:"enabled"`
	Sizes       []string       `json:"sizes"`
	Colors      []ColorVariant `json:"colors"`
}

// ProductPatch is a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string         `json:"name"`
	Category    *string         `json:"category"`
	Price       *float64        `json:"price"`
	Discount    *float64        `json:"discount"`
	Description *string         `json:"description"`
	Enabled     *bool           `json:"enabled"`
	Sizes       *[]string       `json:"sizes"`
	Colors      *[]ColorVariant `json:"colors"`
	ImageData   *string         `json:"image_data"`
}

// CategoryInput carries the fields accepted when creating a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CategoryPatch is a partial category update.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Enabled     *bool   `json:"enabled"`
}

// SettingsPatch is a partial settings update keyed by the public field names.
type SettingsPatch struct {
	HomepageEnabled     *bool   `json:"homepageEnabled"`
	ProductsPageEnabled *bool   `json:"productsPageEnabled"`
	SiteName            *string `json:"siteName"`
	SiteDescription     *string `json:"siteDescription"`
	DriveFolderID       *string `json:"driveFolderId"`
}

// Apply copies the supplied fields onto s.
func (p SettingsPatch) Apply(s *SiteSettings) {
	if p.HomepageEnabled != nil {
		s.HomepageEnabled = *p.HomepageEnabled
	}
	if p.ProductsPageEnabled != nil {
		s.ProductsPageEnabled = *p.ProductsPageEnabled
	}
	if p.SiteName != nil {
		s.SiteName = *p.SiteName
	}
	if p.SiteDescription != nil {
		s.SiteDescription = *p.SiteDescription
	}
	if p.DriveFolderID != nil {
		s.DriveFolderID = *p.DriveFolderID
	}
}
