package ingredients

import "strings"

// NumFeatures is the length of the vector returned by Features.Vector.
const NumFeatures = 4

// Features is the numeric description of one product for one user.
//
// The JSON names match the columns of the training dataset.
type Features struct {
	NumIngredients     int `json:"num_ingredients"`
	NumLikedMatches    int `json:"num_liked_matches"`
	NumDislikedMatches int `json:"num_disliked_matches"`
	NumAllergenMatches int `json:"num_allergen_matches"`
}

// Vector returns the features in model input order.
func (f Features) Vector() []float64 {
	return []float64{
		float64(f.NumIngredients),
		float64(f.NumLikedMatches),
		float64(f.NumDislikedMatches),
		float64(f.NumAllergenMatches),
	}
}

// ExtractFeatures computes the feature vector for an ingredient list and the
// three preference collections. All inputs are normalized first.
//
// A keyword is matched when it is a substring of at least one ingredient:
// "corn" matches "corn syrup". Match counts are the number of distinct
// keywords satisfied, not the number of ingredients that satisfy them.
// Keywords that are empty after trimming never match.
func ExtractFeatures(ingredients, likes, dislikes, allergens []string) Features {
	normalized := Normalize(ingredients)
	return Features{
		NumIngredients:     len(normalized),
		NumLikedMatches:    countPartialMatches(normalized, likes),
		NumDislikedMatches: countPartialMatches(normalized, dislikes),
		NumAllergenMatches: countPartialMatches(normalized, allergens),
	}
}

// MatchedKeywords returns the distinct normalized keywords found in the
// ingredients, in first-seen order.
func MatchedKeywords(ingredients, keywords []string) []string {
	normalized := Normalize(ingredients)
	matched := make([]string, 0)
	for _, kw := range uniqueKeywords(keywords) {
		if containsKeyword(normalized, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func countPartialMatches(ingredients, keywords []string) int {
	n := 0
	for _, kw := range uniqueKeywords(keywords) {
		if containsKeyword(ingredients, kw) {
			n++
		}
	}
	return n
}

func containsKeyword(ingredients []string, kw string) bool {
	for _, ing := range ingredients {
		if strings.Contains(ing, kw) {
			return true
		}
	}
	return false
}

func uniqueKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = normalizeToken(kw)
		// "" is a substring of every ingredient; skip it so a blank entry cannot satisfy a list.
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
