package ai

import "strings"

// Trade categories used for pricing knowledge
const (
	CategoryPainting   = "painting"
	CategoryPlumbing   = "plumbing"
	CategoryElectrical = "electrical"
	CategoryCarpentry  = "carpentry"
	CategoryTiling     = "tiling"
	CategoryRoofing    = "roofing"
	CategoryGeneral    = "general"
)

const categoryList = "painting, plumbing, electrical, carpentry, tiling, roofing, general"

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryPainting, []string{"paint", "primer", "undercoat", "varnish", "skim", "plaster"}},
	{CategoryPlumbing, []string{"pipe", "leak", "geyser", "tap", "toilet", "drain", "basin", "valve", "plumb"}},
	{CategoryElectrical, []string{"light", "plug", "socket", "wiring", "db board", "breaker", "switch", "electric"}},
	{CategoryCarpentry, []string{"door", "cupboard", "skirting", "wood", "hinge", "shelf", "frame"}},
	{CategoryTiling, []string{"tile", "grout", "tiling"}},
	{CategoryRoofing, []string{"roof", "gutter", "waterproof", "flashing", "ridge"}},
}

// KeywordCategory classifies a description by keyword. It is the fallback
// when no model is available.
func KeywordCategory(description string) string {
	d := strings.ToLower(description)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(d, w) {
				return c.category
			}
		}
	}
	return CategoryGeneral
}

// NormalizeCategory maps a free-form category onto the known set
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, known := range categoryKeywords {
		if c == known.category {
			return c
		}
	}
	if c == "" {
		return ""
	}
	return CategoryGeneral
}
