// Package preferences stores each user's likes, dislikes and allergens behind
// a small key-value interface.
//
// Two stores are provided: MemoryStore for tests and guest sessions, and
// FileStore, which keeps one JSON document per user in a directory. Both
// serialise read-modify-write cycles through Update so concurrent edits of the
// same user cannot lose writes.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
)

var (
	// ErrNotFound is returned when no preferences exist for a user id.
	ErrNotFound = errors.New("preferences not found")

	// ErrInvalidUserID is returned for ids that are empty, too long or contain
	// characters other than letters, digits, '-' and '_'.
	ErrInvalidUserID = errors.New("invalid user id")
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Preferences are the three keyword collections used to score a product.
type Preferences struct {
	Likes     []string `json:"likes"`
	Dislikes  []string `json:"dislikes"`
	Allergens []string `json:"allergens"`
}

// Features extracts the feature vector for an ingredient list under p.
func (p Preferences) Features(ingredientList []string) ingredients.Features {
	return ingredients.ExtractFeatures(ingredientList, p.Likes, p.Dislikes, p.Allergens)
}

// withEmptySlices replaces nil collections so they encode as [].
func (p Preferences) withEmptySlices() Preferences {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Dislikes == nil {
		p.Dislikes = []string{}
	}
	if p.Allergens == nil {
		p.Allergens = []string{}
	}
	return p
}

func (p Preferences) clone() Preferences {
	return Preferences{
		Likes:     append([]string(nil), p.Likes...),
		Dislikes:  append([]string(nil), p.Dislikes...),
		Allergens: append([]string(nil), p.Allergens...),
	}.withEmptySlices()
}

// Store is a key-value store of Preferences keyed by an opaque user id.
type Store interface {
	// Get returns the preferences for id, or ErrNotFound.
	Get(ctx context.Context, id string) (Preferences, error)
	// Put creates or replaces the preferences for id.
	Put(ctx context.Context, id string, p Preferences) error
	// Update applies fn to the stored preferences of an existing user and
	// saves the result atomically with respect to other Update and Put calls.
	Update(ctx context.Context, id string, fn func(*Preferences) error) error
	// Create stores empty preferences under a fresh random id.
	Create(ctx context.Context) (string, error)
	// Delete removes id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// ValidateUserID checks that id is safe to use as a storage key.
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}

func newUserID() string {
	return uuid.NewString()
}
