package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type findByEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// updateProfileRequest deliberately has no email, password or role field:
// anything else in the payload is dropped at bind time.
type updateProfileRequest struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// --- Response types ---

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type pageMetaResponse struct {
	CurrentPage  int   `json:"current_page"`
	ItemCount    int   `json:"item_count"`
	ItemsPerPage int   `json:"items_per_page"`
	TotalItems   int64 `json:"total_items"`
	TotalPages   int   `json:"total_pages"`
}

type pageLinksResponse struct {
	First    string `json:"first"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	Last     string `json:"last,omitempty"`
}

type listUsersResponse struct {
	Items []userResponse    `json:"items"`
	Meta  pageMetaResponse  `json:"meta"`
	Links pageLinksResponse `json:"_links"`
}
