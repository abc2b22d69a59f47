package domain

import "fmt"

// SharePrefix is the column prefix for sector share columns
const SharePrefix = "Pay_"

// Sector describes one category of the sector taxonomy
type Sector struct {
	Key    string `json:"key" yaml:"key" validate:"required"`
	Column string `json:"column" yaml:"column" validate:"required"`
	Label  string `json:"label" yaml:"label"`
}

// SectorTaxonomy is the ordered list of sectors used for share columns.
// Order matters: it is the column order inside the economic source.
type SectorTaxonomy []Sector

// Columns returns the share column names in taxonomy order
func (t SectorTaxonomy) Columns() []string {
	cols := make([]string, len(t))
	for i, s := range t {
		cols[i] = s.Column
	}
	return cols
}

// Index returns the position of the column, or -1
func (t SectorTaxonomy) Index(column string) int {
	for i, s := range t {
		if s.Column == column {
			return i
		}
	}
	return -1
}

// Without returns the taxonomy minus the given keys
func (t SectorTaxonomy) Without(keys ...string) SectorTaxonomy {
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		skip[k] = true
	}
	out := make(SectorTaxonomy, 0, len(t))
	for _, s := range t {
		if !skip[s.Key] {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that keys and columns are unique
func (t SectorTaxonomy) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("sector taxonomy is empty")
	}
	keys := make(map[string]bool, len(t))
	cols := make(map[string]bool, len(t))
	for _, s := range t {
		if keys[s.Key] {
			return fmt.Errorf("duplicate sector key %q", s.Key)
		}
		if cols[s.Column] {
			return fmt.Errorf("duplicate sector column %q", s.Column)
		}
		keys[s.Key] = true
		cols[s.Column] = true
	}
	return nil
}

// DefaultSectorTaxonomy returns the eleven category classification
func DefaultSectorTaxonomy() SectorTaxonomy {
	return SectorTaxonomy{
		{Key: "agriculture", Column: SharePrefix + "Tarim", Label: "Agriculture"},
		{Key: "industry", Column: SharePrefix + "Sanayi", Label: "Industry"},
		{Key: "manufacturing", Column: SharePrefix + "Imalat", Label: "Manufacturing"},
		{Key: "construction", Column: SharePrefix + "Insaat", Label: "Construction"},
		{Key: "services", Column: SharePrefix + "Hizmet", Label: "Services"},
		{Key: "information", Column: SharePrefix + "Bilgi", Label: "Information & Communication"},
		{Key: "finance", Column: SharePrefix + "Finans", Label: "Finance & Insurance"},
		{Key: "real_estate", Column: SharePrefix + "Gayrimenkul", Label: "Real Estate"},
		{Key: "professional", Column: SharePrefix + "Mesleki", Label: "Professional Services"},
		{Key: "public", Column: SharePrefix + "Kamu", Label: "Public Administration"},
		{Key: "other", Column: SharePrefix + "Diger", Label: "Other Services"},
	}
}
