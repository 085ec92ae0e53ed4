package ingredients

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownDiet is returned by DietAllergens for an unrecognised diet name.
var ErrUnknownDiet = errors.New("unknown diet")

var dietAllergens = map[string][]string{
	"vegan": {
		"milk", "cheese", "butter", "honey", "gelatin", "egg", "casein", "lactose", "whey",
	},
	"dairy_free": {
		"milk", "cheese", "butter", "cream", "yogurt", "curd", "lactose", "casein", "whey",
	},
	"halal": {
		"pork", "bacon", "gelatin", "alcohol", "ethanol", "vanilla extract",
	},
	"gluten_free": {
		"wheat", "barley", "rye", "malt", "semolina", "triticale",
	},
}

// DietAllergens returns a copy of the allergen keywords for a diet.
func DietAllergens(diet string) ([]string, error) {
	list, ok := dietAllergens[normalizeToken(diet)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDiet, diet)
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// Diets lists the known diet names in sorted order.
func Diets() []string {
	names := make([]string, 0, len(dietAllergens))
	for name := range dietAllergens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
