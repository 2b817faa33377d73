package categories

import "strings"

// keywords holds the lowercase substrings for each canonical section. The
// fallback section has none. Matching is substring based, so "graham crackers"
// lands in Meat & Seafood because of "ham"; stored lists depend on that.
var keywords = map[Section][]string{
	Produce: {
		"apple", "banana", "orange", "lemon", "lime", "grape", "berry", "berries",
		"lettuce", "spinach", "kale", "tomato", "potato", "onion", "garlic",
		"carrot", "celery", "cucumber", "bell pepper", "jalapeno", "broccoli",
		"cauliflower", "avocado", "mushroom", "zucchini", "squash", "eggplant",
		"peach", "pear", "plum", "mango", "pineapple", "melon", "cilantro",
		"parsley", "basil", "ginger", "herbs", "fruit", "veggie", "vegetable",
		"salad", "sweet corn", "cabbage", "asparagus", "green bean", "kiwi",
		"cherry", "cherries", "scallion", "shallot", "beet", "radish",
	},
	Bakery: {
		"bread", "bagel", "baguette", "bun", "dinner roll", "croissant",
		"muffin", "tortilla", "pita", "cake", "donut", "doughnut", "pie",
		"brioche", "sourdough", "naan",
	},
	MeatSeafood: {
		"chicken", "beef", "pork", "steak", "bacon", "sausage", "turkey", "ham",
		"lamb", "fish", "salmon", "tuna", "shrimp", "crab", "lobster", "cod",
		"tilapia", "meat", "ribs", "veal", "duck", "scallop", "mussel", "clam",
		"hot dog", "brisket",
	},
	Deli: {
		"deli", "salami", "pepperoni", "prosciutto", "hummus", "rotisserie",
		"cold cut", "pastrami", "olives",
	},
	DairyEggs: {
		"milk", "cheese", "butter", "yogurt", "yoghurt", "cream", "egg",
		"cottage", "half and half", "kefir", "margarine",
	},
	Frozen: {
		"frozen", "popsicle", "pizza", "waffle", "tater tot", "french fries",
		"gelato", "sorbet", "edamame", "ice cube",
	},
	Pantry: {
		"rice", "pasta", "spaghetti", "noodle", "flour", "sugar", "salt",
		"olive oil", "canola", "cooking oil", "vinegar", "sauce", "beans",
		"canned", "soup", "cereal", "oat", "jam", "jelly", "honey", "syrup",
		"spice", "cinnamon", "baking", "yeast", "broth", "stock", "lentil",
		"ketchup", "mustard", "mayo", "salsa",
	},
	Snacks: {
		"chips", "crackers", "cookie", "pretzel", "popcorn", "candy",
		"chocolate", "granola", "nuts", "almond", "cashew", "peanut",
		"trail mix", "gummy", "snack",
	},
	Beverages: {
		"water", "soda", "juice", "coffee", "tea", "beer", "wine", "sparkling",
		"lemonade", "kombucha", "cola", "gatorade", "energy drink", "drink",
	},
	Household: {
		"tide", "detergent", "bleach", "paper towel", "toilet paper",
		"trash bag", "garbage bag", "dish soap", "sponge", "cleaner", "foil",
		"plastic wrap", "ziploc", "napkin", "tissue", "battery", "batteries",
		"light bulb", "dryer sheet", "lysol", "windex", "clorox", "swiffer",
		"laundry", "dishwasher",
	},
	PersonalCare: {
		"shampoo", "conditioner", "soap", "toothpaste", "toothbrush",
		"deodorant", "lotion", "razor", "floss", "sunscreen", "mouthwash",
		"tampon", "body wash", "vitamin", "medicine", "ibuprofen", "tylenol",
		"advil", "band-aid", "bandaid", "q-tip", "cotton",
	},
	Baby: {
		"diaper", "wipes", "formula", "baby",
	},
	Pet: {
		"dog", "cat food", "kitty", "litter", "pet food", "flea",
	},
	Other: {},
}

// Keywords returns a copy of the keyword set of a section.
func Keywords(s Section) []string {
	kw := keywords[s]
	out := make([]string, len(kw))
	copy(out, kw)
	return out
}

// Categorize returns the store section for an item name. Sections are tried in
// layout order and the first one with a keyword contained in the lowercased
// name wins, even when a later section has a longer match.
func Categorize(itemName string) Section {
	name := strings.ToLower(itemName)
	for _, s := range Sections() {
		if s == Fallback {
			continue
		}
		for _, kw := range keywords[s] {
			if strings.Contains(name, kw) {
				return s
			}
		}
	}
	return Fallback
}

// CategoryFor is Categorize wrapped in a Category.
func CategoryFor(itemName string) Category {
	return Canonical(Categorize(itemName))
}
