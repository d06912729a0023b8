package category

import "github.com/NgigiN/smswallet/internal/storage"

const (
	Transfers = "Transfers"
	Other     = storage.DefaultCategory
)

// DefaultRules returns the built-in rule set in precedence order. More specific
// keywords come before broader ones that would also match.
func DefaultRules() []storage.CategoryRule {
	seed := []struct {
		keyword, category, icon string
	}{
		// Food & dining
		{"swiggy", "Food", "🍔"},
		{"zomato", "Food", "🍔"},
		{"dominos", "Food", "🍕"},
		{"pizza", "Food", "🍕"},
		{"mcdonald", "Food", "🍔"},
		{"kfc", "Food", "🍗"},
		{"starbucks", "Food", "☕"},
		{"restaurant", "Food", "🍽️"},
		{"cafe", "Food", "☕"},

		// Groceries
		{"bigbasket", "Groceries", "🛒"},
		{"blinkit", "Groceries", "🛒"},
		{"zepto", "Groceries", "🛒"},
		{"dmart", "Groceries", "🛒"},
		{"grocer", "Groceries", "🛒"},
		{"supermarket", "Groceries", "🛒"},

		// Shopping
		{"amazon", "Shopping", "🛍️"},
		{"flipkart", "Shopping", "🛍️"},
		{"myntra", "Shopping", "🛍️"},
		{"ajio", "Shopping", "🛍️"},
		{"meesho", "Shopping", "🛍️"},
		{"nykaa", "Shopping", "🛍️"},

		// Transport
		{"uber", "Transport", "🚕"},
		{"ola cabs", "Transport", "🚕"},
		{"rapido", "Transport", "🛵"},
		{"metro", "Transport", "🚇"},
		{"irctc", "Travel", "🚆"},
		{"makemytrip", "Travel", "✈️"},
		{"indigo", "Travel", "✈️"},
		{"goibibo", "Travel", "✈️"},

		// Fuel
		{"petrol", "Fuel", "⛽"},
		{"fuel", "Fuel", "⛽"},
		{"indian oil", "Fuel", "⛽"},
		{"hpcl", "Fuel", "⛽"},
		{"bpcl", "Fuel", "⛽"},

		// Bills & utilities
		{"electricity", "Bills", "💡"},
		{"bescom", "Bills", "💡"},
		{"airtel", "Bills", "📱"},
		{"jio", "Bills", "📱"},
		{"vodafone", "Bills", "📱"},
		{"broadband", "Bills", "🌐"},
		{"recharge", "Bills", "📱"},
		{"gas", "Bills", "🔥"},

		// Entertainment
		{"netflix", "Entertainment", "🎬"},
		{"hotstar", "Entertainment", "🎬"},
		{"spotify", "Entertainment", "🎵"},
		{"bookmyshow", "Entertainment", "🎟️"},
		{"pvr", "Entertainment", "🎬"},

		// Health
		{"pharmacy", "Health", "💊"},
		{"apollo", "Health", "💊"},
		{"medplus", "Health", "💊"},
		{"hospital", "Health", "🏥"},
		{"clinic", "Health", "🏥"},

		// Education
		{"school", "Education", "🎓"},
		{"college", "Education", "🎓"},
		{"udemy", "Education", "🎓"},
	}

	rules := make([]storage.CategoryRule, 0, len(seed))
	for _, s := range seed {
		rules = append(rules, storage.CategoryRule{
			Keyword:  s.keyword,
			Category: s.category,
			Icon:     s.icon,
		})
	}
	return rules
}
