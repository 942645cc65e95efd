package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/olaizola/maplabel/internal/core/usecases"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates an account.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		user, err := deps.Users.Register(c.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(user)
	}
}

// LoginHandler verifies credentials and issues a bearer token.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		token, user, err := deps.Users.Login(c.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, usecases.ErrSessionsUnavailable) {
				return errInternal(c, err.Error())
			}
			return errUnauthorized(c, "invalid credentials")
		}
		return c.JSON(fiber.Map{"token": token, "user": user})
	}
}

// LogoutHandler revokes the caller's session.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return errUnauthorized(c, "missing bearer token")
		}
		if err := deps.Users.Logout(c.Context(), token); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// RequireAuth resolves the bearer token to a user id and stores it in
// c.Locals("userID"). Mutating routes sit behind this; read-only routes
// stay public.
func RequireAuth(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return errUnauthorized(c, "missing bearer token")
		}
		userID, err := deps.Users.Authenticate(c.Context(), token)
		if err != nil {
			return errUnauthorized(c, "invalid or expired session")
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// mapServiceError translates usecase sentinels into API errors.
func mapServiceError(c *fiber.Ctx, err error) error {
	if err == usecases.ErrForbidden {
		return errForbidden(c, "you do not own this resource")
	}
	return errInternal(c, err.Error())
}
