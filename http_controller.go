package membership

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// UserController exposes the Authenticator over HTTP. The password and
// activation routes expect TokenGuard to have run first; identity and client
// scope come from the validated claims, never from the request body.
type UserController struct {
	Debug        bool
	Logger       Logger
	Auther       Authenticator
	ContextKey   string
	PhoneRegion  string
	ErrorHandler router.ErrorHandler
}

type UserControllerOption func(*UserController) *UserController

func NewUserController(opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger:       defLogger{},
		ContextKey:   DefaultContextKey,
		PhoneRegion:  "US",
		ErrorHandler: RenderError,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in user controller...")
	}

	return c
}

func WithControllerAuthenticator(auther Authenticator) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Debug = debug
		return c
	}
}

// RegisterUserRoutes mounts the account routes. The protected middleware
// guards every route that derives identity from claims; authenticate and
// create are the only anonymous operations.
func RegisterUserRoutes[T any](app router.Router[T], controller *UserController, protected router.MiddlewareFunc) {
	app.Post("/api/user/authenticate", controller.Authenticate).
		SetName("user.authenticate")

	app.Post("/api/user", controller.CreateAccount).
		SetName("user.create")

	app.Put("/api/user/password", protected(controller.ChangePassword)).
		SetName("user.password")

	app.Put("/api/user/activate", protected(controller.Activate)).
		SetName("user.activate")

	app.Put("/api/user/deactivate", protected(controller.Deactivate)).
		SetName("user.deactivate")
}

// AuthenticateRequest payload
type AuthenticateRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Client   string `form:"client" json:"client"`
}

// Validate will run validation rules
func (r AuthenticateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Client, validation.Required),
	)
}

func (a *UserController) Authenticate(ctx router.Context) error {
	payload := new(AuthenticateRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("authenticate parse payload: ", "error", err)
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, wrapValidationError(err))
	}

	client, err := ParseClient(payload.Client)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	token, err := a.Auther.Authenticate(ctx.Context(), payload.Username, payload.Password, client)
	if err != nil {
		a.Logger.Error("authenticate: ", "error", err, "username", payload.Username)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"token": token,
	})
}

// CreateAccountRequest payload
type CreateAccountRequest struct {
	Username  string `form:"username" json:"username"`
	Password  string `form:"password" json:"password"`
	Email     string `form:"email" json:"email"`
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Phone     string `form:"phone_number" json:"phone_number"`
}

// Validate will run validation rules
func (r CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, is.Email),
	)
}

func (a *UserController) CreateAccount(ctx router.Context) error {
	payload := new(CreateAccountRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("create account parse payload: ", "error", err)
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, wrapValidationError(err))
	}

	if a.Debug {
		debugPayload(a.Logger, "create account", payload)
	}

	record := &AccountPayload{
		Username:  payload.Username,
		Password:  payload.Password,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     a.normalizePhone(payload.Phone),
	}

	created, err := a.Auther.CreateAccount(ctx.Context(), record)
	if err != nil {
		a.Logger.Error("create account: ", "error", err, "username", payload.Username)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, created)
}

// ChangePasswordRequest payload. The username comes from the token subject.
type ChangePasswordRequest struct {
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
	)
}

func (a *UserController) ChangePassword(ctx router.Context) error {
	claims, ok := ClaimsFromContext(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	payload := new(ChangePasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("change password parse payload: ", "error", err)
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, wrapValidationError(err))
	}

	count, err := a.Auther.ChangePassword(ctx.Context(), claims.Subject(), payload.Password)
	if err != nil {
		a.Logger.Error("change password: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusAccepted, router.ViewContext{
		"updated": count,
	})
}

// ActivationRequest payload. The client scope comes from the token audience.
type ActivationRequest struct {
	Username string `form:"username" json:"username"`
}

// Validate will run validation rules
func (r ActivationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
	)
}

func (a *UserController) Activate(ctx router.Context) error {
	return a.setActivation(ctx, true)
}

func (a *UserController) Deactivate(ctx router.Context) error {
	return a.setActivation(ctx, false)
}

func (a *UserController) setActivation(ctx router.Context, active bool) error {
	claims, ok := ClaimsFromContext(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	if !claims.HasRole(RoleAdministrator) {
		return a.ErrorHandler(ctx, ErrAdministratorRequired)
	}

	client, err := clientFromClaims(claims)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ActivationRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("activation parse payload: ", "error", err)
		return a.ErrorHandler(ctx, wrapBindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, wrapValidationError(err))
	}

	var count int64
	if active {
		count, err = a.Auther.Activate(ctx.Context(), payload.Username, client)
	} else {
		count, err = a.Auther.Deactivate(ctx.Context(), payload.Username, client)
	}

	if err != nil {
		a.Logger.Error("activation: ", "error", err, "username", payload.Username, "client", client)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"updated": count,
	})
}

// clientFromClaims resolves which client an administrative token acts on: the
// first registered entry of its audience.
func clientFromClaims(claims AuthClaims) (Client, error) {
	for _, aud := range claims.Audience() {
		client := Client(aud)
		if client.IsRegistered() {
			return client, nil
		}
	}
	return "", ErrInvalidClient
}

func (a *UserController) normalizePhone(raw string) string {
	if raw == "" {
		return ""
	}

	num, err := phonenumbers.Parse(raw, a.PhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}
