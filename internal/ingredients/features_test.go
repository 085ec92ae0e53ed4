package ingredients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFeatures(t *testing.T) {
	tests := []struct {
		name        string
		ingredients []string
		likes       []string
		dislikes    []string
		allergens   []string
		want        Features
	}{
		{
			name:        "all liked",
			ingredients: []string{"corn", "cheese", "salt", "flavor"},
			likes:       []string{"corn", "flavor", "cheese"},
			want:        Features{NumIngredients: 4, NumLikedMatches: 3},
		},
		{
			name:        "allergen partial match",
			ingredients: []string{"peanut oil"},
			allergens:   []string{"peanut"},
			want:        Features{NumIngredients: 1, NumAllergenMatches: 1},
		},
		{
			name: "empty everything",
			want: Features{},
		},
		{
			name:        "empty preferences",
			ingredients: []string{"water", "water"},
			want:        Features{NumIngredients: 2},
		},
		{
			name:        "keyword matching many ingredients counts once",
			ingredients: []string{"corn syrup", "corn starch", "popcorn"},
			likes:       []string{"corn"},
			want:        Features{NumIngredients: 3, NumLikedMatches: 1},
		},
		{
			name:        "one ingredient matching many keywords",
			ingredients: []string{"milk chocolate with hazelnut"},
			likes:       []string{"chocolate", "hazelnut"},
			allergens:   []string{"milk", "nut", "egg"},
			want:        Features{NumIngredients: 1, NumLikedMatches: 2, NumAllergenMatches: 2},
		},
		{
			name:        "duplicate keywords do not double count",
			ingredients: []string{"sugar"},
			dislikes:    []string{"sugar", " Sugar", "SUGAR "},
			want:        Features{NumIngredients: 1, NumDislikedMatches: 1},
		},
		{
			name:        "case insensitive",
			ingredients: []string{"  Wheat Flour "},
			allergens:   []string{"WHEAT"},
			want:        Features{NumIngredients: 1, NumAllergenMatches: 1},
		},
		{
			name:        "blank keyword ignored",
			ingredients: []string{"salt"},
			likes:       []string{"", "   "},
			want:        Features{NumIngredients: 1},
		},
		{
			name:        "substring is one way",
			ingredients: []string{"corn"},
			likes:       []string{"corn syrup"},
			want:        Features{NumIngredients: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFeatures(tt.ingredients, tt.likes, tt.dislikes, tt.allergens)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractFeatures_CountsEveryIngredient(t *testing.T) {
	ings := []string{"a", "a", "b", "", "c"}
	f := ExtractFeatures(ings, nil, nil, nil)
	assert.Equal(t, len(ings), f.NumIngredients)
}

func TestFeatures_Vector(t *testing.T) {
	f := Features{NumIngredients: 4, NumLikedMatches: 3, NumDislikedMatches: 2, NumAllergenMatches: 1}
	v := f.Vector()
	assert.Len(t, v, NumFeatures)
	assert.Equal(t, []float64{4, 3, 2, 1}, v)
}

func TestMatchedKeywords(t *testing.T) {
	got := MatchedKeywords([]string{"corn syrup", "salt"}, []string{"Corn", "pepper", "salt", "corn"})
	assert.Equal(t, []string{"corn", "salt"}, got)
}
