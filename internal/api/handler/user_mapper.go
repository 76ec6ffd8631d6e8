package handler

import (
	"github.com/userhub/user-directory/internal/core/domain"
	"github.com/userhub/user-directory/internal/core/ports"
)

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

func toListResponse(r *ports.ListUsersResult) listUsersResponse {
	items := make([]userResponse, len(r.Items))
	for i, u := range r.Items {
		items[i] = toUserResponse(u)
	}
	return listUsersResponse{
		Items: items,
		Meta: pageMetaResponse{
			CurrentPage:  r.Meta.CurrentPage,
			ItemCount:    r.Meta.ItemCount,
			ItemsPerPage: r.Meta.ItemsPerPage,
			TotalItems:   r.Meta.TotalItems,
			TotalPages:   r.Meta.TotalPages,
		},
		Links: pageLinksResponse{
			First:    r.Links.First,
			Previous: r.Links.Previous,
			Next:     r.Links.Next,
			Last:     r.Links.Last,
		},
	}
}
