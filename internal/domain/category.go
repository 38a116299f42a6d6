package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#000000"

// MaxCategoryNameLength bounds Category.Name.
const MaxCategoryNameLength = 100

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validation errors for Category
var (
	ErrEmptyCategoryID      = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyCategoryUserID  = NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	ErrEmptyCategoryName    = NewValidationError("name", "cannot be empty", ErrEmptyContent)
	ErrCategoryNameTooLong  = NewValidationError("name", "must be at most 100 characters", ErrTooLong)
	ErrInvalidCategoryColor = NewValidationError("color", "must be a hex color such as #1a2b3c", ErrInvalidFormat)
)

// Category groups a user's todos. Names are unique per user.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategory creates a Category for userID. An empty color becomes DefaultCategoryColor.
// Returns an error if validation fails.
func NewCategory(userID uuid.UUID, name, color string) (*Category, error) {
	if color == "" {
		color = DefaultCategoryColor
	}

	now := time.Now().UTC()
	category := &Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}

	if c.UserID == uuid.Nil {
		return ErrEmptyCategoryUserID
	}

	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}

	if utf8.RuneCountInString(c.Name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}

	if !hexColorPattern.MatchString(c.Color) {
		return ErrInvalidCategoryColor
	}

	return nil
}

// CategoryWithCount is a category annotated with the number of todos in it.
type CategoryWithCount struct {
	Category
	TodoCount int `json:"todo_count"`
}
