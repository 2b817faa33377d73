package analysis

import (
	"fmt"
	"strings"

	"github.com/listlens/listlens/internal/categories"
)

func buildVisionPrompt() string {
	return `This is a photo of a handwritten shopping list. Transcribe it.

INSTRUCTIONS:
1. Extract every item name. Remove bullets, checkboxes, quantities (like "2x" or "3 lbs") and store names.
2. Fix obvious spelling mistakes ("bannana" is "banana").
3. Group the items into sections the way the page groups them. Use one of these section types:
   - "grocery": things to buy
   - "meal_plan": dishes or meals planned for the week
   - "struck_through": items that are crossed out
   - "note": anything else written on the page that is not an item
4. If the page has no visible grouping, return a single "grocery" section named "Groceries".

OUTPUT FORMAT:
Respond with ONLY a JSON object in the following format:

{
  "sections": [
    {"name": "Groceries", "type": "grocery", "items": ["milk", "eggs", "bread"]}
  ]
}`
}

const reviewSystemPrompt = `You organize shopping lists by grocery store section. You answer with JSON only.`

func buildReviewPrompt(itemsJSON string) string {
	names := make([]string, 0, len(categories.Sections()))
	for _, s := range categories.Sections() {
		names = append(names, fmt.Sprintf("%q", s.String()))
	}

	return fmt.Sprintf(`Here are the items of a shopping list with the store section each one is filed under:

%s

Check every category. Prefer these sections: %s.
Use a different name only when none of them fits.

Return ONLY a JSON object listing the items whose section should change:

{
  "suggestions": [
    {"id": "<item id>", "category": "<section name>"}
  ]
}

Return {"suggestions": []} when every item is already filed correctly.`, itemsJSON, strings.Join(names, ", "))
}
