package ingredients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"label example", "corn, cheese; salt(flavor)", []string{"corn", "cheese", "salt", "flavor"}},
		{"empty", "", []string{}},
		{"only delimiters", ",;()[] ,", []string{}},
		{"brackets", "sugar [cane], water", []string{"sugar", "cane", "water"}},
		{"keeps inner spaces", "corn syrup , sea salt", []string{"corn syrup", "sea salt"}},
		{"existing newlines", "milk\nsugar\n\n", []string{"milk", "sugar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.text))
		})
	}
}

func TestSegment_NoEmptyTokens(t *testing.T) {
	for _, tok := range Segment(" a ,, ;b;( )c[]") {
		assert.NotEmpty(t, tok)
	}
}

func TestJoinRecognized(t *testing.T) {
	assert.Equal(t, "ingredients: corn, salt", JoinRecognized([]string{"Ingredients: Corn,", "SALT"}))
	assert.Equal(t, "", JoinRecognized(nil))
}

func TestJoinRecognized_FoldsBeforeLowerCasing(t *testing.T) {
	text := JoinRecognized([]string{"ℌoney, ＳＡＬＴ", "ﬂour"})
	assert.Equal(t, "honey, salt flour", text)
	assert.Equal(t, []string{"honey", "salt flour"}, Segment(text))
}
