package categories

import (
	"encoding/json"
	"strings"
)

// Kind tells the two variants of a Category apart.
type Kind int

const (
	KindCanonical Kind = iota + 1
	KindCustom
)

// Category is either a canonical store section or a custom name proposed by
// the vision model, the review pass or the user. The zero value is the
// fallback section.
type Category struct {
	kind    Kind
	section Section
	custom  string
}

// Canonical builds a Category for a canonical section.
func Canonical(s Section) Category {
	if !s.Valid() {
		s = Fallback
	}
	return Category{kind: KindCanonical, section: s}
}

// Custom builds a Category for a free-form section name. A name matching a
// canonical section collapses to that section, and an empty name becomes the
// fallback section.
func Custom(name string) Category {
	name = strings.TrimSpace(name)
	if name == "" {
		return Canonical(Fallback)
	}
	if s, ok := LookupSection(name); ok {
		return Canonical(s)
	}
	return Category{kind: KindCustom, custom: name}
}

// Parse is an alias of Custom for readability at call sites decoding
// stored or model-provided names.
func Parse(name string) Category {
	return Custom(name)
}

func (c Category) norm() Category {
	if c.kind == 0 {
		return Category{kind: KindCanonical, section: Fallback}
	}
	return c
}

// Kind reports which variant c holds.
func (c Category) Kind() Kind { return c.norm().kind }

// Section returns the canonical section and true, or Other and false for a
// custom category.
func (c Category) Section() (Section, bool) {
	c = c.norm()
	if c.kind == KindCanonical {
		return c.section, true
	}
	return Other, false
}

// Name is the display name.
func (c Category) Name() string {
	c = c.norm()
	switch c.kind {
	case KindCanonical:
		return c.section.String()
	case KindCustom:
		return c.custom
	}
	return Fallback.String()
}

func (c Category) String() string { return c.Name() }

// Equal compares categories by variant and name.
func (c Category) Equal(o Category) bool {
	return c.Kind() == o.Kind() && c.Name() == o.Name()
}

// Rank orders categories by store layout. Custom categories sort after every
// canonical section except the fallback, alphabetically among themselves.
func (c Category) Rank() int {
	c = c.norm()
	switch c.kind {
	case KindCanonical:
		if c.section == Fallback {
			return int(Fallback) + 1
		}
		return int(c.section)
	case KindCustom:
		return int(Fallback)
	}
	return int(Fallback) + 1
}

// Less sorts by Rank, then by name.
func (c Category) Less(o Category) bool {
	if c.Rank() != o.Rank() {
		return c.Rank() < o.Rank()
	}
	return c.Name() < o.Name()
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.Name()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	*c = Parse(string(b))
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Name())
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	*c = Parse(name)
	return nil
}
