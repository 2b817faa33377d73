package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/encoder"
	"github.com/listlens/listlens/internal/models"
	"github.com/listlens/listlens/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	response string
	err      error
	last     providers.Config
	calls    int
}

func (f *fakeProvider) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	f.calls++
	f.last = config
	return f.response, f.err
}

func payload() *encoder.Payload {
	return &encoder.Payload{Data: []byte{0xff, 0xd8, 0xff}, MediaType: encoder.MediaType, DecodedBytes: 3}
}

func TestParseSections(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []models.Section
	}{
		{
			name:     "wrapped",
			response: `{"sections": [{"name": "Produce", "type": "grocery", "items": ["apples", " ", "pears "]}]}`,
			want:     []models.Section{{Name: "Produce", Type: models.SectionGrocery, Items: []string{"apples", "pears"}}},
		},
		{
			name:     "fenced",
			response: "```json\n{\"sections\": [{\"name\": \"Dinner\", \"type\": \"meal_plan\", \"items\": [\"tacos\"]}]}\n```",
			want:     []models.Section{{Name: "Dinner", Type: models.SectionMealPlan, Items: []string{"tacos"}}},
		},
		{
			name:     "plain array of names",
			response: `Sure! ["milk", "eggs", "bread"]`,
			want:     []models.Section{{Name: DefaultSectionName, Type: models.SectionGrocery, Items: []string{"milk", "eggs", "bread"}}},
		},
		{
			name:     "array of sections with unknown type",
			response: `[{"name": "", "type": "shopping", "items": ["milk"]}]`,
			want:     []models.Section{{Name: DefaultSectionName, Type: models.SectionGrocery, Items: []string{"milk"}}},
		},
		{
			name:     "empty",
			response: `{"sections": []}`,
			want:     []models.Section{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSections(tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSectionsMalformed(t *testing.T) {
	for _, response := range []string{"", "I can't read this image", `{"items": ["milk"]}`, `[1, 2, 3]`} {
		_, err := ParseSections(response)
		assert.ErrorIs(t, err, ErrMalformedResponse, response)
	}
}

func TestItemsFromSections(t *testing.T) {
	items := ItemsFromSections([]models.Section{
		{Name: "Groceries", Type: models.SectionGrocery, Items: []string{"Bananas", "Tide Pods", "quinoa", "bananas"}},
		{Name: "Crossed out", Type: models.SectionStruckThrough, Items: []string{"chips"}},
		{Name: "Reminders", Type: models.SectionNote, Items: []string{"call mom"}},
		{Name: "Dinner", Type: models.SectionMealPlan, Items: []string{"chicken tacos"}},
		{Name: "frozen", Type: models.SectionGrocery, Items: []string{"peas", "  "}},
	})

	require.Len(t, items, 5)
	want := []struct {
		name     string
		category categories.Category
	}{
		{"Bananas", categories.Canonical(categories.Produce)},
		{"Tide Pods", categories.Canonical(categories.Household)},
		{"quinoa", categories.Canonical(categories.Other)},
		{"chicken tacos", categories.Canonical(categories.MeatSeafood)},
		{"peas", categories.Canonical(categories.Frozen)},
	}
	for i, w := range want {
		assert.Equal(t, w.name, items[i].Name)
		assert.Equal(t, w.category, items[i].Category, w.name)
		assert.Equal(t, i, items[i].Order)
	}
}

func TestAnalyzeImage(t *testing.T) {
	p := &fakeProvider{response: `["milk", "eggs"]`}
	s := NewService(p, "anthropic", "")

	sections, err := s.AnalyzeImage(context.Background(), payload())
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"milk", "eggs"}, sections[0].Items)

	assert.Equal(t, "claude-sonnet-4-5-20250929", p.last.Model)
	require.Len(t, p.last.Images, 1)
	assert.Equal(t, "image/jpeg", p.last.Images[0].MediaType)
	assert.True(t, p.last.JSON)
}

func TestAnalyzeImageFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		kind     error
	}{
		{"quota", &fakeProvider{err: &providers.StatusError{Provider: "anthropic", StatusCode: 429}}, common.ErrQuotaExceeded},
		{"unauthenticated", &fakeProvider{err: &providers.StatusError{Provider: "anthropic", StatusCode: 401}}, common.ErrUnauthenticated},
		{"upstream", &fakeProvider{err: errors.New("connection reset")}, ErrUpstream},
		{"malformed", &fakeProvider{response: "no idea"}, ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.provider, "anthropic", "").AnalyzeImage(context.Background(), payload())
			assert.ErrorIs(t, err, common.ErrAnalysis)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err := NewService(&fakeProvider{}, "anthropic", "").AnalyzeImage(context.Background(), &encoder.Payload{})
	assert.ErrorIs(t, err, common.ErrAnalysis)
}

func TestReviewCategories(t *testing.T) {
	items := []models.SnapshotItem{
		{ID: "a", Name: "peanut butter", Category: categories.Canonical(categories.DairyEggs)},
		{ID: "b", Name: "graham crackers", Category: categories.Canonical(categories.MeatSeafood)},
	}
	p := &fakeProvider{response: "```json\n" + `{"suggestions": [
		{"id": "a", "category": "pantry"},
		{"id": "b", "category": "Baking Aisle"},
		{"id": "zzz", "category": "Produce"},
		{"id": "a", "category": ""}
	]}` + "\n```"}
	s := NewService(p, "openai", "")

	got, err := s.ReviewCategories(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.ProposedCategory{ItemID: "a", Category: categories.Canonical(categories.Pantry)}, got[0])
	assert.Equal(t, categories.KindCustom, got[1].Category.Kind())
	assert.Equal(t, "Baking Aisle", got[1].Category.Name())

	assert.Equal(t, "gpt-4o", p.last.Model)
	assert.Contains(t, p.last.Prompt, `"peanut butter"`)
	assert.Contains(t, p.last.Prompt, `"Dairy & Eggs"`)
	assert.Empty(t, p.last.Images)
}

func TestReviewCategoriesAcceptsBareArray(t *testing.T) {
	items := []models.SnapshotItem{{ID: "a", Name: "chips"}}
	p := &fakeProvider{response: `[{"item_id": "a", "category": "Snacks"}]`}

	got, err := NewService(p, "ollama", "llava").ReviewCategories(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, categories.Canonical(categories.Snacks), got[0].Category)
}

func TestReviewCategoriesFailures(t *testing.T) {
	items := []models.SnapshotItem{{ID: "a", Name: "chips"}}

	_, err := NewService(&fakeProvider{response: "sorry"}, "openai", "").ReviewCategories(context.Background(), items)
	assert.ErrorIs(t, err, common.ErrReview)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = NewService(&fakeProvider{err: errors.New("boom")}, "openai", "").ReviewCategories(context.Background(), items)
	assert.ErrorIs(t, err, common.ErrReview)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, common.ErrAnalysis)
}

func TestReviewCategoriesSkipsEmptyInput(t *testing.T) {
	p := &fakeProvider{}
	got, err := NewService(p, "openai", "").ReviewCategories(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, p.calls)
}

func TestOpenProvider(t *testing.T) {
	for _, name := range Providers() {
		assert.NotEmpty(t, DefaultModel(name), name)
	}

	_, err := OpenProvider("anthropic", ProviderOptions{})
	assert.Error(t, err)
	p, err := OpenProvider("ollama", ProviderOptions{})
	require.NoError(t, err)
	assert.NotNil(t, p)
	_, err = OpenProvider("watson", ProviderOptions{})
	assert.Error(t, err)
}
