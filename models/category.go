package models

// Categories is the fixed set of transaction categories. Transactions and
// budgets only ever reference one of these values.
var Categories = []string{
	"Food",
	"Transport",
	"Housing",
	"Bills & Utilities",
	"Shopping",
	"Health",
	"Entertainment",
	"Savings / Investments",
	"Misc/others",
}

// IsValidCategory reports whether category is one of the fixed set.
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
