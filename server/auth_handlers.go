package server

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/taskforge-io/taskforge/auth"
	"github.com/taskforge-io/taskforge/middleware/guard"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 30), is.LowerCase),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FullName, validation.Length(0, 200)),
	)
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.auth.Register(c.UserContext(), auth.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated,
		"User registered successfully and verification email has been sent on your email",
		fiber.Map{"user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	result, err := s.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	s.setAuthCookies(c, &result.TokenPair)

	return respond(c, fiber.StatusOK, "User logged in successfully", result)
}

func (s *Server) logout(c *fiber.Ctx) error {
	user, ok := guard.User(c)
	if !ok {
		return auth.ErrUnauthorized()
	}

	if err := s.auth.Logout(c.UserContext(), user.ID); err != nil {
		return err
	}

	s.clearAuthCookies(c)

	return respond(c, fiber.StatusOK, "User logged out", fiber.Map{})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshToken accepts the incoming token from the session cookie first,
// falling back to the request body for cookie-less clients.
func (s *Server) refreshToken(c *fiber.Ctx) error {
	incoming := c.Cookies(guard.RefreshTokenCookie)
	if incoming == "" {
		var req refreshRequest
		if err := c.BodyParser(&req); err == nil {
			incoming = req.RefreshToken
		}
	}

	pair, err := s.auth.Refresh(c.UserContext(), incoming)
	if err != nil {
		return err
	}

	s.setAuthCookies(c, pair)

	return respond(c, fiber.StatusOK, "Access token refreshed", pair)
}

func (s *Server) verifyEmail(c *fiber.Ctx) error {
	if err := s.auth.VerifyEmail(c.UserContext(), c.Params("token")); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Email is verified",
		fiber.Map{"is_email_verified": true})
}

func (s *Server) resendEmailVerification(c *fiber.Ctx) error {
	user, ok := guard.User(c)
	if !ok {
		return auth.ErrUnauthorized()
	}

	if err := s.auth.ResendEmailVerification(c.UserContext(), user.ID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Mail has been sent to your email ID", fiber.Map{})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r forgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (s *Server) forgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := s.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK,
		"Password reset mail has been sent on your mail id", fiber.Map{})
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (r resetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (s *Server) resetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := s.auth.ResetForgotPassword(c.UserContext(), c.Params("token"), req.NewPassword); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Password reset successfully", fiber.Map{})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	user, ok := guard.User(c)
	if !ok {
		return auth.ErrUnauthorized()
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := s.auth.ChangeCurrentPassword(c.UserContext(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Password changed successfully", fiber.Map{})
}

func (s *Server) currentUser(c *fiber.Ctx) error {
	user, ok := guard.User(c)
	if !ok {
		return auth.ErrUnauthorized()
	}

	return respond(c, fiber.StatusOK, "Current user fetched successfully", user)
}

func (s *Server) setAuthCookies(c *fiber.Ctx, pair *auth.TokenPair) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     guard.AccessTokenCookie,
		Value:    pair.AccessToken,
		Expires:  now.Add(s.cfg.GetAccessTokenTTL()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     guard.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Expires:  now.Add(s.cfg.GetRefreshTokenTTL()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{guard.AccessTokenCookie, guard.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

func badPayload(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse request body").
		WithCode(goerrors.CodeBadRequest)
}
