package catalog

// Row is one (model, year, size, colour) combination from the retailer catalog.
// Rows are immutable once Load returns them.
type Row struct {
	Family    string `json:"family"`
	Model     string `json:"model"`
	Year      string `json:"year"`
	Size      string `json:"size"`
	ColorName string `json:"color_name"`
	ColorCode string `json:"color_code"`
	JoinKey   string `json:"join_key"` // supplier article code (TTCC)
	EAN       string `json:"ean,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// SkipModel removes a single (model, year) combination from the catalog.
type SkipModel struct {
	Model string `yaml:"model" json:"model"`
	Year  string `yaml:"year" json:"year"`
}

// Columns maps catalog fields to spreadsheet header names.
type Columns struct {
	Family    string `yaml:"family"`
	Model     string `yaml:"model"`
	Year      string `yaml:"year"`
	Size      string `yaml:"size"`
	ColorName string `yaml:"color_name"`
	ColorCode string `yaml:"color_code"`
	JoinKey   string `yaml:"join_key"`
	EAN       string `yaml:"ean"`
	ImageURL  string `yaml:"image_url"`
}

// Filters is the externally supplied selection applied while loading the catalog.
// It also carries the per-colour policy overrides and title settings consumed downstream.
type Filters struct {
	Brand                    string            `yaml:"brand"`
	Families                 []string          `yaml:"families"`
	SkipModels               []SkipModel       `yaml:"skip_models"`
	ModelExclusions          []string          `yaml:"model_exclusions"`
	FilterSingleModel        string            `yaml:"filter_single_model"`
	ColorPolicyOverrides     map[string]string `yaml:"color_policy_overrides"`
	RepresentativeSkipColors []string          `yaml:"representative_skip_colors"`
	// RequireImage skips products without an image; it only applies to portal (composite) feeds.
	RequireImage             bool              `yaml:"require_image"`
	Columns                  Columns           `yaml:"columns"`
}

// DefaultColumns returns the header names used by the supplier's EPOS export.
func DefaultColumns() Columns {
	return Columns{
		Family:    "Family",
		Model:     "Model",
		Year:      "Year",
		Size:      "Size",
		ColorName: "Summarised Colour (EN)",
		ColorCode: "Colour Code",
		JoinKey:   "TTCC",
		EAN:       "EAN",
		ImageURL:  "Image_Url",
	}
}

// DefaultFilters returns the selection currently sold in the shop.
func DefaultFilters() Filters {
	return Filters{
		Brand: "Orbea",
		Families: []string{
			"Alma", "Avant", "Kemen", "Kemen Suv", "Laufey", "Occam", "Occam LT",
			"Occam SL", "Oiz", "Orca", "Orca Aero", "Ordu", "Rallon", "Rise",
			"Terra", "Urrun", "Wild",
		},
		SkipModels: []SkipModel{
			{Model: "ORDU M30iLTD", Year: "2023"},
			{Model: "WILD M-TEAM", Year: "2024"},
			{Model: "WILD M-LTD", Year: "2024"},
			{Model: "TERRA M20iTEAM", Year: "2024"},
		},
		// >mph e-bikes and frame-only (OMR/OMX) listings are not sold
		ModelExclusions:          []string{"20mph", "28mph", " OMR", " OMX", "SPIRIT", "2POS FK"},
		// MyO is the made-to-order paint programme; it has no product photo
		RepresentativeSkipColors: []string{"Myo"},
		RequireImage:             true,
		Columns:                  DefaultColumns(),
	}
}

// withDefaults fills empty column names from DefaultColumns.
func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.Family, d.Family)
	fill(&c.Model, d.Model)
	fill(&c.Year, d.Year)
	fill(&c.Size, d.Size)
	fill(&c.ColorName, d.ColorName)
	fill(&c.ColorCode, d.ColorCode)
	fill(&c.JoinKey, d.JoinKey)
	fill(&c.EAN, d.EAN)
	fill(&c.ImageURL, d.ImageURL)
	return c
}
