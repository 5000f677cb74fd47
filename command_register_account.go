package membership

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage carries everything needed to provision an account
// inside a single transaction. UseHashid derives a deterministic ID from the
// username so repeated seeding is idempotent.
type RegisterAccountMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UseHashid bool
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountHandler struct {
	repo RepositoryManager
}

func NewRegisterAccountHandler(repo RepositoryManager) *RegisterAccountHandler {
	return &RegisterAccountHandler{repo: repo}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	if event.Password == "" {
		return goerrors.Wrap(ErrNoEmptyString, goerrors.CategoryValidation, "invalid password provided")
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		salt, err := GenerateSalt()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate password salt")
		}

		account.PasswordSalt = salt
		account.PasswordHash = ComputeHash(event.Password, salt)
		account.Email = event.Email
		account.Phone = event.Phone
		account.FirstName = event.FirstName
		account.LastName = event.LastName
		account.Username = getUsername(event.Username, event.Email)
		account.Activation = NewActivation()
		if event.UseHashid {
			if id, err := hashid.NewUUID(account.Username); err == nil {
				account.ID = id
			}
		}

		if _, err := h.repo.Accounts().InsertTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
