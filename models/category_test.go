package models

import "testing"

func TestIsValidCategory(t *testing.T) {
	for _, category := range Categories {
		if !IsValidCategory(category) {
			t.Errorf("IsValidCategory(%q) = false, want true", category)
		}
	}

	for _, category := range []string{"", "food", "Groceries", "FOOD", "Food "} {
		if IsValidCategory(category) {
			t.Errorf("IsValidCategory(%q) = true, want false", category)
		}
	}
}
