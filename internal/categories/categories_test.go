package categories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		item     string
		expected Section
	}{
		{name: "produce", item: "banana", expected: Produce},
		{name: "household brand", item: "Tide Pods", expected: Household},
		{name: "no keyword falls back", item: "Quinoa", expected: Other},
		{name: "upper case", item: "CHICKEN THIGHS", expected: MeatSeafood},
		{name: "mixed case", item: "Rotisserie Chicken", expected: MeatSeafood},
		{name: "empty name", item: "", expected: Other},
		{name: "dairy", item: "2% milk", expected: DairyEggs},
		{name: "first section in layout wins", item: "peanut butter", expected: DairyEggs},
		{name: "substring false positive is kept", item: "graham crackers", expected: MeatSeafood},
		{name: "eggplant is produce not dairy", item: "eggplant", expected: Produce},
		{name: "pet", item: "dog treats", expected: Pet},
		{name: "beverage", item: "sparkling water", expected: Beverages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.item))
		})
	}
}

func TestCategorizeIsPure(t *testing.T) {
	for _, item := range []string{"chicken", "Chicken", "cHiCkEn breast"} {
		first := Categorize(item)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Categorize(item))
		}
		assert.Equal(t, "Meat & Seafood", first.String())
	}
}

func TestFallbackHasNoKeywordsAndIsLast(t *testing.T) {
	sections := Sections()
	require.NotEmpty(t, sections)
	assert.Equal(t, Fallback, sections[len(sections)-1])
	assert.Empty(t, Keywords(Fallback))

	for _, s := range sections[:len(sections)-1] {
		assert.NotEmpty(t, Keywords(s), s.String())
	}
}

func TestKeywordsAreLowercase(t *testing.T) {
	for _, s := range Sections() {
		for _, kw := range Keywords(s) {
			assert.Equal(t, kw, toLowerASCII(kw), "section %s", s)
		}
	}
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestLookupSection(t *testing.T) {
	s, ok := LookupSection("  household & cleaning ")
	assert.True(t, ok)
	assert.Equal(t, Household, s)

	_, ok = LookupSection("Spices & Baking")
	assert.False(t, ok)
}

func TestCategoryVariants(t *testing.T) {
	c := Custom("Produce")
	assert.Equal(t, KindCanonical, c.Kind())
	s, ok := c.Section()
	assert.True(t, ok)
	assert.Equal(t, Produce, s)

	custom := Custom("  Spices & Baking ")
	assert.Equal(t, KindCustom, custom.Kind())
	assert.Equal(t, "Spices & Baking", custom.Name())
	_, ok = custom.Section()
	assert.False(t, ok)

	assert.Equal(t, Canonical(Other), Custom(""))

	var zero Category
	assert.Equal(t, "Other", zero.Name())
	assert.True(t, zero.Equal(Canonical(Other)))
}

func TestCategoryOrdering(t *testing.T) {
	produce := Canonical(Produce)
	pet := Canonical(Pet)
	custom := Custom("Asian Foods")
	other := Canonical(Other)

	assert.True(t, produce.Less(pet))
	assert.True(t, pet.Less(custom))
	assert.True(t, custom.Less(other))
	assert.True(t, Custom("A").Less(Custom("B")))
}

func TestCategoryJSON(t *testing.T) {
	type wrapper struct {
		Category Category `json:"category"`
	}

	data, err := json.Marshal(wrapper{Category: Canonical(MeatSeafood)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"Meat & Seafood"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"category":"International"}`), &w))
	assert.Equal(t, KindCustom, w.Category.Kind())
	assert.Equal(t, "International", w.Category.Name())

	require.NoError(t, json.Unmarshal([]byte(`{"category":"dairy & eggs"}`), &w))
	assert.True(t, w.Category.Equal(Canonical(DairyEggs)))
}

func TestStyleFor(t *testing.T) {
	t.Run("canonical sections have fixed styles", func(t *testing.T) {
		for _, s := range Sections() {
			assert.Equal(t, sectionStyles[s], StyleFor(s.String()))
			assert.Equal(t, sectionStyles[s], StyleOf(Canonical(s)))
		}
	})

	t.Run("custom names are deterministic", func(t *testing.T) {
		for _, name := range []string{"International", "Costco run", "Spices & Baking", "日本の食品", "🍕 night"} {
			first := StyleFor(name)
			for i := 0; i < 3; i++ {
				assert.Equal(t, first, StyleFor(name))
			}
			assert.Equal(t, first, StyleOf(Custom(name)))
		}
	})

	t.Run("index within palette bounds", func(t *testing.T) {
		inputs := []string{"", "a", "International", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", "😀😀😀", "\u0000"}
		for _, in := range inputs {
			idx := PaletteIndex(in)
			assert.GreaterOrEqual(t, idx, 0, in)
			assert.Less(t, idx, len(Palette), in)
		}
	})
}

func TestPaletteIndexHash(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		// hash("") = 0
		{name: "empty", input: "", expected: 0},
		// ('a' = 97) * 31 = 3007; 3007 % 8 = 7
		{name: "single unit", input: "a", expected: 7},
		// (3007 + 98) * 31 = 96255; 96255 % 8 = 7
		{name: "two units", input: "ab", expected: 7},
		// U+1F600 is the surrogate pair D83D DE00:
		// (0 + 55357) * 31 = 1716067; (1716067 + 56832) * 31 = 54959869; % 8 = 5
		{name: "surrogate pair", input: "😀", expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PaletteIndex(tt.input))
		})
	}
}

func TestPaletteIndexWrapsLikeInt32(t *testing.T) {
	// A long input overflows 32 bits many times; recompute with an explicit
	// uint32 to make sure the wrap matches two's complement.
	input := "The quick brown fox jumps over the lazy dog, twice over."
	var h uint32
	for _, r := range input {
		h = (h + uint32(r)) * 31
	}
	signed := int64(int32(h))
	if signed < 0 {
		signed = -signed
	}
	assert.Equal(t, int(signed%int64(len(Palette))), PaletteIndex(input))
}
