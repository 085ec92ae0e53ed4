package ingredients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", []string{}, []string{}},
		{"nil", nil, []string{}},
		{"lower and trim", []string{"  Corn Syrup ", "SALT"}, []string{"corn syrup", "salt"}},
		{"keeps empty positions", []string{"a", "   ", "B"}, []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []string{" Milk "}
	_ = Normalize(in)
	assert.Equal(t, " Milk ", in[0])
}

func TestFoldText(t *testing.T) {
	assert.Equal(t, "flour", FoldText("ﬂour"))
	assert.Equal(t, "salt,sugar", FoldText("salt，sugar"))
}
