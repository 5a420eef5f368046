package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/oladanielT/support-system/internal/api/dto"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/service"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

// UsersHandler exposes registration, login and account endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
	})
	if err != nil {
		return err
	}
	return respondCreated(c, sessionResponse(session))
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respondOK(c, sessionResponse(session))
}

// ChangePassword handles POST /auth/password/change.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respondOK(c, fiber.Map{"changed": true})
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.users.Profile(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondOK(c, userResponse(user))
}

// UpdateMe handles PATCH /users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.UpdateProfile(c.UserContext(), actor, service.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
	})
	if err != nil {
		return err
	}
	return respondOK(c, userResponse(user))
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	filter := service.UserListFilter{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		filter.Department = &dept
	}
	if active := c.Query("is_active"); active != "" {
		v := active == "true" || active == "1"
		filter.Active = &v
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}

	page, err := h.users.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, userResponse(&page.Items[i]))
	}
	return respondOK(c, dto.PageResponse[dto.UserResponse]{Items: items, Total: page.Total, Page: page.Page, PageSize: page.PageSize})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, userResponse(user))
}

// AdminUpdate handles PATCH /users/:id.
func (h *UsersHandler) AdminUpdate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AdminUserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.AdminUpdate(c.UserContext(), actor, c.Params("id"), service.AdminUserInput{
		Role:       req.Role,
		Department: req.Department,
		Active:     req.IsActive,
	})
	if err != nil {
		return err
	}
	return respondOK(c, userResponse(user))
}

func sessionResponse(session *service.Session) fiber.Map {
	return fiber.Map{
		"user": userResponse(session.User),
		"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		Role:        user.Role,
		Department:  user.Department,
		PhoneNumber: user.PhoneNumber,
		IsActive:    user.Active,
		CreatedAt:   user.CreatedAt,
	}
}
