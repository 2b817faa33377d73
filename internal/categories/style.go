package categories

import "unicode/utf16"

// Style is how a section header is drawn.
type Style struct {
	Color      string `json:"color"`
	Background string `json:"background"`
	Icon       string `json:"icon"`
}

var sectionStyles = [...]Style{
	Produce:      {Color: "#2E7D32", Background: "#E8F5E9", Icon: "🥬"},
	Bakery:       {Color: "#8D6E63", Background: "#EFEBE9", Icon: "🥖"},
	MeatSeafood:  {Color: "#C62828", Background: "#FFEBEE", Icon: "🥩"},
	Deli:         {Color: "#AD1457", Background: "#FCE4EC", Icon: "🥪"},
	DairyEggs:    {Color: "#1565C0", Background: "#E3F2FD", Icon: "🥛"},
	Frozen:       {Color: "#00838F", Background: "#E0F7FA", Icon: "🧊"},
	Pantry:       {Color: "#EF6C00", Background: "#FFF3E0", Icon: "🥫"},
	Snacks:       {Color: "#F9A825", Background: "#FFFDE7", Icon: "🍿"},
	Beverages:    {Color: "#6A1B9A", Background: "#F3E5F5", Icon: "🥤"},
	Household:    {Color: "#455A64", Background: "#ECEFF1", Icon: "🧽"},
	PersonalCare: {Color: "#00695C", Background: "#E0F2F1", Icon: "🧴"},
	Baby:         {Color: "#D81B60", Background: "#FCE4EC", Icon: "🍼"},
	Pet:          {Color: "#5D4037", Background: "#D7CCC8", Icon: "🐾"},
	Other:        {Color: "#616161", Background: "#F5F5F5", Icon: "🛒"},
}

// Palette is used for sections that are not canonical.
var Palette = [...]Style{
	{Color: "#3949AB", Background: "#E8EAF6", Icon: "🏷️"},
	{Color: "#00897B", Background: "#E0F2F1", Icon: "🏷️"},
	{Color: "#7CB342", Background: "#F1F8E9", Icon: "🏷️"},
	{Color: "#FB8C00", Background: "#FFF3E0", Icon: "🏷️"},
	{Color: "#8E24AA", Background: "#F3E5F5", Icon: "🏷️"},
	{Color: "#E53935", Background: "#FFEBEE", Icon: "🏷️"},
	{Color: "#039BE5", Background: "#E1F5FE", Icon: "🏷️"},
	{Color: "#6D4C41", Background: "#EFEBE9", Icon: "🏷️"},
}

// StyleFor returns the style of a section by display name. Canonical sections
// have fixed styles; everything else gets a palette entry picked by PaletteIndex.
func StyleFor(sectionName string) Style {
	if s, ok := LookupSection(sectionName); ok {
		return sectionStyles[s]
	}
	return Palette[PaletteIndex(sectionName)]
}

// StyleOf is StyleFor for a Category.
func StyleOf(c Category) Style {
	switch c.Kind() {
	case KindCanonical:
		s, _ := c.Section()
		return sectionStyles[s]
	case KindCustom:
		return Palette[PaletteIndex(c.Name())]
	}
	return sectionStyles[Fallback]
}

// PaletteIndex hashes name over its UTF-16 code units with 32-bit wrapping
// arithmetic: hash = (hash + u) * 31. The result must match across platforms
// because clients store colors derived from it.
func PaletteIndex(name string) int {
	var hash int32
	for _, u := range utf16.Encode([]rune(name)) {
		hash = (hash + int32(u)) * 31
	}
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return int(h % int64(len(Palette)))
}
