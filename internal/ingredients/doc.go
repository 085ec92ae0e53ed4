// Package ingredients turns label text and user preference lists into the
// fixed-size feature vector consumed by the scoring model.
//
// # Tokens
//
// Every ingredient, like, dislike and allergen is a Token: a free-text string
// compared case-insensitively with surrounding whitespace ignored. Normalize
// applies that rule to a whole slice.
//
// # Segmentation
//
// OCR returns one string per detected text line. JoinRecognized glues those
// lines into a single lower-cased blob and Segment splits the blob on the
// delimiter set ", ; ( ) [ ]" into ingredient tokens:
//
//	Segment("corn, cheese; salt(flavor)") // ["corn" "cheese" "salt" "flavor"]
//
// # Features
//
// ExtractFeatures counts ingredients and, for each preference collection, the
// number of distinct keywords that appear as a substring of at least one
// ingredient. A keyword matching several ingredients counts once; a single
// ingredient matching several keywords contributes once per keyword.
//
//	f := ExtractFeatures(
//	    []string{"corn syrup", "salt"},
//	    []string{"corn"}, nil, nil,
//	)
//	// f == Features{NumIngredients: 2, NumLikedMatches: 1}
//
// # Dietary Presets
//
// DietAllergens returns the allergen keyword list for a named diet such as
// "vegan" or "gluten_free".
package ingredients
