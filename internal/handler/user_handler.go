package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"usermgmt/internal/errors"
	"usermgmt/internal/model"
	"usermgmt/internal/service"
)

// UserHandler bundles HTTP handlers for the user collection.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UserRequest is the payload for create and update.
type UserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Role  string `json:"role" validate:"required"`
}

func parseID(c echo.Context) (uint, *echo.HTTPError) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid user id",
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}

func bindUserRequest(c echo.Context) (*UserRequest, *echo.HTTPError) {
	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
	}
	if err := c.Validate(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
	}
	return &req, nil
}

// ListUsers godoc
// @Summary List users
// @Description Returns all user records in id order.
// @Tags users
// @Produce json
// @Success 200 {array} model.User
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		mapped := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body UserRequest true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	req, httpErr := bindUserRequest(c)
	if httpErr != nil {
		return httpErr
	}
	created, err := h.svc.CreateUser(c.Request().Context(), req.Name, req.Email, model.Role(req.Role))
	if err != nil {
		mapped := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateUser godoc
// @Summary Update user
// @Description Replaces name, email and role of the record; the id is immutable.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body UserRequest true "User payload"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	req, httpErr := bindUserRequest(c)
	if httpErr != nil {
		return httpErr
	}
	updated, err := h.svc.UpdateUser(c.Request().Context(), id, req.Name, req.Email, model.Role(req.Role))
	if err != nil {
		mapped := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteUser godoc
// @Summary Delete user
// @Description Hard delete. Deleting an unknown id returns 404.
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, httpErr := parseID(c)
	if httpErr != nil {
		return httpErr
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		mapped := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
	}
	return c.NoContent(http.StatusNoContent)
}
