package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

// RegisterRequest defines the payload for the user registration endpoint.
// Password length is checked by the domain so the limit lives in one place.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PasswordResetRequest consumes a password reset token.
type PasswordResetRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func tokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		ExpiresAt:    pair.AccessExpiresAt,
	}
}

// UpdateUserRequest changes the caller's email.
type UpdateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateCategoryRequest defines the payload for creating a category.
type CreateCategoryRequest struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateCategoryRequest defines the payload for updating a category.
// Omitted fields are left unchanged.
type UpdateCategoryRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=100"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// CreateTodoRequest defines the payload for creating a todo.
type CreateTodoRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateTodoRequest defines the payload for updating a todo. Omitted fields
// are left unchanged; description, category_id and deadline may be sent as
// null to clear them.
type UpdateTodoRequest struct {
	Title       *string                    `json:"title"  validate:"omitempty,min=1,max=200"`
	Status      *domain.TodoStatus         `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Description shared.Optional[string]    `json:"description"`
	CategoryID  shared.Optional[uuid.UUID] `json:"category_id"`
	Deadline    shared.Optional[time.Time] `json:"deadline"`
}

// UpdateTodoStatusRequest defines the payload for PATCH /todos/{id}/status.
type UpdateTodoStatusRequest struct {
	Status domain.TodoStatus `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

// UpdatedResponse reports how many rows a bulk update touched.
type UpdatedResponse struct {
	Updated int64 `json:"updated"`
}

// DeletedResponse reports how many rows a bulk delete removed.
type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
