// Package categories maps grocery item names to store sections and store
// sections to display styles.
package categories

import "strings"

// Section is a canonical store section. The iota order is the store layout
// order used for classification and for sorting a list.
type Section int

const (
	Produce Section = iota
	Bakery
	MeatSeafood
	Deli
	DairyEggs
	Frozen
	Pantry
	Snacks
	Beverages
	Household
	PersonalCare
	Baby
	Pet
	// Other is the fallback section. It has no keywords and is always last.
	Other
)

var sectionNames = [...]string{
	Produce:      "Produce",
	Bakery:       "Bakery",
	MeatSeafood:  "Meat & Seafood",
	Deli:         "Deli",
	DairyEggs:    "Dairy & Eggs",
	Frozen:       "Frozen",
	Pantry:       "Pantry",
	Snacks:       "Snacks",
	Beverages:    "Beverages",
	Household:    "Household & Cleaning",
	PersonalCare: "Personal Care",
	Baby:         "Baby",
	Pet:          "Pet",
	Other:        "Other",
}

// Fallback is the section returned when no keyword matches.
const Fallback = Other

// Sections returns the canonical sections in layout order.
func Sections() []Section {
	out := make([]Section, 0, len(sectionNames))
	for s := Produce; s <= Other; s++ {
		out = append(out, s)
	}
	return out
}

// String returns the display name of the section.
func (s Section) String() string {
	if s < Produce || s > Other {
		return sectionNames[Other]
	}
	return sectionNames[s]
}

// Valid reports whether s is one of the canonical sections.
func (s Section) Valid() bool {
	return s >= Produce && s <= Other
}

// LookupSection finds a canonical section by display name. Matching ignores
// case and surrounding whitespace so "produce" and " Produce " resolve.
func LookupSection(name string) (Section, bool) {
	name = strings.TrimSpace(name)
	for s, n := range sectionNames {
		if strings.EqualFold(n, name) {
			return Section(s), true
		}
	}
	return Other, false
}
