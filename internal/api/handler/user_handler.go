package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-directory/internal/api/metrics"
	"github.com/userhub/user-directory/internal/core/domain"
	"github.com/userhub/user-directory/internal/core/ports"
)

// UserHandler handles HTTP requests for the user directory.
type UserHandler struct {
	service ports.UserService
	// route is the absolute base route used for pagination links,
	// e.g. http://localhost:8080/api/users.
	route string
}

func NewUserHandler(service ports.UserService, route string) *UserHandler {
	return &UserHandler{service: service, route: route}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserExists):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return c.JSON(http.StatusConflict, errorResponse{Error: "user already exists"})
		case errors.Is(err, domain.ErrInvalidInput):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid input"})
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{AccessToken: token})
}

// Get returns a single user by id. An unknown id yields an empty object,
// not an error.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if user == nil {
		return c.JSON(http.StatusOK, echo.Map{})
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// FindByEmail returns a single user matched by email, or an empty object.
//
// @Summary      Find a user by email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      findByEmailRequest  true  "Lookup email"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/users/email [post]
func (h *UserHandler) FindByEmail(c echo.Context) error {
	var req findByEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.service.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return c.JSON(http.StatusOK, echo.Map{})
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List returns one page of users, optionally filtered by username substring.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page      query     int     false  "Page number (1-based)"
// @Param        limit     query     int     false  "Items per page (max 100)"
// @Param        username  query     string  false  "Username substring filter"
// @Success      200       {object}  listUsersResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.List(c.Request().Context(), ports.ListUsersInput{
		Page:     page,
		Limit:    limit,
		Username: c.QueryParam("username"),
		Route:    h.route,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toListResponse(result))
}

// UpdateProfile updates the caller's own identity fields. Email, password
// and role are not accepted through this path.
//
// @Summary      Update a user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "User id"
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), c.Param("id"), ports.ProfilePatch{
		Name:     req.Name,
		Username: req.Username,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		case errors.Is(err, domain.ErrUserExists):
			return c.JSON(http.StatusConflict, errorResponse{Error: "username already taken"})
		}
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateRole assigns a new role. Reaching this handler requires the admin
// role gate to have passed.
//
// @Summary      Update a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.service.UpdateRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid role"})
		}
		return err
	}

	metrics.RoleUpdatesTotal.WithLabelValues(req.Role).Inc()
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes a user record. Admin only; not idempotent.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "User id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		}
		return err
	}

	metrics.DeletionsTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}
