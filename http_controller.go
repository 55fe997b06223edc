package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// IdentityControllerRoutes holds the route paths, mirroring the forum's
// REST surface.
type IdentityControllerRoutes struct {
	Register      string
	VerifyAccount string
	Login         string
	RefreshToken  string
	PublicProfile string
	EditProfile   string
	Password      string
	Deactivate    string
	Reactivate    string
	GrantProfile  string
	RevokeProfile string
}

// IdentityController exposes the identity service over a router-agnostic
// HTTP surface. The host application is expected to run its own auth
// middleware and stash the raw bearer token under ContextKey.
type IdentityController struct {
	Debug        bool
	Logger       Logger
	Service      *IdentityService
	Provider     IdentityProvider
	Repo         RepositoryManager
	Tokens       TokenService
	ContextKey   string
	Routes       *IdentityControllerRoutes
	ErrorHandler router.ErrorHandler
}

type IdentityControllerOption func(*IdentityController) *IdentityController

func WithControllerService(s *IdentityService) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Service = s
		return c
	}
}

func WithControllerProvider(p IdentityProvider) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Provider = p
		return c
	}
}

func WithControllerRepo(r RepositoryManager) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Repo = r
		return c
	}
}

func WithControllerTokens(t TokenService) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Tokens = t
		return c
	}
}

func WithControllerLogger(l Logger) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func NewIdentityController(opts ...IdentityControllerOption) *IdentityController {
	c := &IdentityController{
		Logger:     defLogger{},
		ContextKey: "identity_token",
		Routes: &IdentityControllerRoutes{
			Register:      "/register",
			VerifyAccount: "/verify-account",
			Login:         "/login",
			RefreshToken:  "/refresh-token",
			PublicProfile: "/:username",
			EditProfile:   "/edit-profile",
			Password:      "/change-password",
			Deactivate:    "/deactivate/:id",
			Reactivate:    "/reactivate/:id",
			GrantProfile:  "/grant-profile/:id",
			RevokeProfile: "/revoke-profile/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.errorResponse
	}

	if c.Service == nil {
		panic("Missing IdentityService in identity controller...")
	}

	if c.Provider == nil {
		panic("Missing IdentityProvider in identity controller...")
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in identity controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in identity controller...")
	}

	return c
}

// RegisterIdentityRoutes mounts the identity endpoints on the given
// router. The public profile route goes last so it does not shadow the
// named routes.
func RegisterIdentityRoutes[T any](app router.Router[T], opts ...IdentityControllerOption) {
	controller := NewIdentityController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("identity.register")
	app.Get(controller.Routes.VerifyAccount, controller.VerifyAccount).
		SetName("identity.verify")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("identity.login")
	app.Post(controller.Routes.RefreshToken, controller.RefreshPost).
		SetName("identity.refresh")

	app.Put(controller.Routes.EditProfile, controller.EditProfilePut).
		SetName("identity.edit-profile")
	app.Patch(controller.Routes.Password, controller.ChangePasswordPatch).
		SetName("identity.change-password")

	app.Delete(controller.Routes.Deactivate, controller.DeactivateDelete).
		SetName("identity.deactivate")
	app.Patch(controller.Routes.Reactivate, controller.ReactivatePatch).
		SetName("identity.reactivate")
	app.Patch(controller.Routes.GrantProfile, controller.GrantProfilePatch).
		SetName("identity.grant-profile")
	app.Patch(controller.Routes.RevokeProfile, controller.RevokeProfilePatch).
		SetName("identity.revoke-profile")

	app.Get(controller.Routes.PublicProfile, controller.ShowProfile).
		SetName("identity.profile")
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
	FullName string `form:"full_name" json:"full_name"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(3, 60),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 72),
		),
	)
}

func (a *IdentityController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse registration payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload"))
	}

	if a.Debug {
		a.Logger.Debug("registration payload: %s", print.MaybePrettyJSON(payload))
	}

	account, err := a.Service.Register(ctx.Context(), RegisterAccountMessage{
		Email:    payload.Email,
		Username: payload.Username,
		FullName: payload.FullName,
		Password: payload.Password,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	ctx.SetHeader("Location", fmt.Sprintf("/%s", account.Username))
	return ctx.JSON(http.StatusCreated, account)
}

func (a *IdentityController) VerifyAccount(ctx router.Context) error {
	code := ctx.Query("code", "")
	if code == "" {
		return a.ErrorHandler(ctx, goerrors.New("missing verification code", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	if _, err := a.Service.ConfirmVerification(ctx.Context(), code); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "account verified",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *IdentityController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload"))
	}

	id, err := a.Provider.VerifyIdentity(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Service.IssueSession(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, pair)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.RefreshToken,
			validation.Required,
		),
	)
}

func (a *IdentityController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse refresh payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid refresh payload"))
	}

	pair, err := a.Service.RefreshSession(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, pair)
}

func (a *IdentityController) ShowProfile(ctx router.Context) error {
	username := ctx.Param("username")

	account, err := a.Service.LookupPublicProfile(ctx.Context(), username)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, account)
}

func (a *IdentityController) EditProfilePut(ctx router.Context) error {
	actor, err := a.requireActor(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ProfileEdit)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse profile payload"))
	}

	account, err := a.Service.EditProfile(ctx.Context(), actor, *payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, account)
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	Confirmation    string `form:"confirmation" json:"confirmation"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.CurrentPassword,
			validation.Required,
		),
		validation.Field(
			&r.NewPassword,
			validation.Required,
			validation.Length(8, 72),
		),
		validation.Field(
			&r.Confirmation,
			validation.Required,
		),
	)
}

func (a *IdentityController) ChangePasswordPatch(ctx router.Context) error {
	actor, err := a.requireActor(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ChangePasswordRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse password payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password payload"))
	}

	err = a.Service.ChangePassword(ctx.Context(), actor, ChangePasswordMessage{
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
		Confirmation:    payload.Confirmation,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (a *IdentityController) DeactivateDelete(ctx router.Context) error {
	actor, err := a.requireActor(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	targetID, err := a.paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Service.Deactivate(ctx.Context(), actor, targetID); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (a *IdentityController) ReactivatePatch(ctx router.Context) error {
	targetID, err := a.paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Service.Reactivate(ctx.Context(), targetID); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ProfileRequest payload
type ProfileRequest struct {
	Profile string `form:"profile" json:"profile"`
}

// Validate will run validation rules
func (r ProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Profile,
			validation.Required,
		),
	)
}

func (a *IdentityController) GrantProfilePatch(ctx router.Context) error {
	return a.mutateProfile(ctx, a.Service.GrantProfile)
}

func (a *IdentityController) RevokeProfilePatch(ctx router.Context) error {
	return a.mutateProfile(ctx, a.Service.RevokeProfile)
}

func (a *IdentityController) mutateProfile(ctx router.Context, op func(context.Context, uuid.UUID, ProfileName) (*Account, error)) error {
	targetID, err := a.paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ProfileRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse profile payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile payload"))
	}

	profile, ok := ParseProfile(payload.Profile)
	if !ok {
		return a.ErrorHandler(ctx, withMetadata(ErrUnknownProfile, map[string]any{
			"profile": payload.Profile,
		}))
	}

	account, err := op(ctx.Context(), targetID, profile)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, account)
}

// requireActor resolves the acting account from the bearer token the host
// middleware stored under ContextKey, so authorization-gated operations
// receive the principal as an explicit argument.
func (a *IdentityController) requireActor(ctx router.Context) (*Account, error) {
	raw := ctx.Locals(a.ContextKey)
	if raw == nil {
		return nil, ErrInvalidCredentials
	}

	token, ok := raw.(string)
	if !ok || token == "" {
		return nil, ErrInvalidCredentials
	}

	token = strings.TrimPrefix(token, "Bearer ")

	subject, err := a.Tokens.Verify(token, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	account, err := a.Repo.Accounts().GetByID(ctx.Context(), subject)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	return account, nil
}

func (a *IdentityController) paramID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid account id").
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func (a *IdentityController) errorResponse(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Debug(
		"identity controller error: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(statusFromError(richErr), map[string]any{
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func statusFromError(richErr *goerrors.Error) int {
	if richErr.Code != 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
