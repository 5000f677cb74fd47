package membership

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Auther orchestrates the credential hasher, the account store, and the
// token service. Every operation is atomic from the caller's perspective:
// one logical account mutation per call, no in-process caching, no retries.
type Auther struct {
	store        AccountStore
	hasher       CredentialHasher
	tokenService TokenService
	logger       Logger
}

// enumerationDecoy keys the hash we burn when a username does not exist, so
// the unknown-username and wrong-password paths share a latency profile.
var enumerationDecoy = func() []byte {
	salt, err := GenerateSalt()
	if err != nil {
		return make([]byte, SaltLength)
	}
	return salt
}()

// NewAuthenticator returns a new Authenticator backed by the given store.
func NewAuthenticator(store AccountStore, opts Config) *Auther {
	tokenService := NewTokenService(
		opts.GetSigningSecret(),
		opts.GetTokenLifetime(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		store:        store,
		hasher:       hmacHasher{},
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithHasher sets a custom CredentialHasher.
func (s *Auther) WithHasher(hasher CredentialHasher) *Auther {
	s.hasher = hasher
	return s
}

// WithTokenService sets a custom TokenService.
func (s *Auther) WithTokenService(tokenService TokenService) *Auther {
	s.tokenService = tokenService
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// CreateAccount registers a new identity. The username must be unused; every
// activation flag starts false. The returned payload is re-read from the
// store and never carries the plaintext password.
func (s *Auther) CreateAccount(ctx context.Context, payload *AccountPayload) (*AccountPayload, error) {
	if payload == nil || payload.Username == "" || payload.Password == "" {
		return nil, ErrNoEmptyString
	}

	if _, err := s.store.FindByUsername(ctx, payload.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !isRecordNotFound(err) {
		s.logger.Error("CreateAccount username lookup failed", "error", err)
		return nil, wrapStoreError(err)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}

	account := AccountFromPayload(payload)
	account.PasswordSalt = salt
	account.PasswordHash = s.hasher.ComputeHash(payload.Password, salt)
	account.Activation = NewActivation()

	count, err := s.store.Insert(ctx, account)
	if err != nil {
		s.logger.Error("CreateAccount insert failed", "error", err, "username", payload.Username)
		// A race on the unique username between lookup and insert lands here;
		// anything else is a store fault, not a conflict.
		if isDuplicateKeyError(err) {
			return nil, errors.Wrap(err, errors.CategoryConflict, ErrUsernameTaken.Message).
				WithTextCode(ErrUsernameTaken.TextCode).
				WithCode(errors.CodeConflict)
		}
		return nil, wrapStoreError(err)
	}

	if count != 1 {
		return nil, errors.New("account insert reported no mutation", errors.CategoryInternal)
	}

	created, err := s.store.FindByUsername(ctx, account.Username)
	if err != nil {
		s.logger.Error("CreateAccount re-read failed", "error", err, "username", account.Username)
		return nil, wrapStoreError(err)
	}

	return PayloadFromAccount(created), nil
}

// Authenticate verifies a username/password pair and issues a token scoped
// to the requested client. It does NOT consult the activation flags: a
// deactivated account still obtains a token. That behavior is inherited from
// the source deployments on purpose; activation only gates the
// administrative operations below.
func (s *Auther) Authenticate(ctx context.Context, username, password string, client Client) (string, error) {
	if !client.IsRegistered() {
		return "", ErrInvalidClient
	}

	if username == "" || password == "" {
		return "", ErrNoEmptyString
	}

	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if isRecordNotFound(err) {
			// Burn a hash so this path costs the same as a wrong password.
			s.hasher.ComputeHash(password, enumerationDecoy)
			return "", ErrInvalidCredentials
		}
		s.logger.Error("Authenticate account lookup failed", "error", err)
		return "", wrapStoreError(err)
	}

	expected := s.hasher.ComputeHash(password, account.PasswordSalt)
	if !s.hasher.VerifyEqual(expected, account.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Issue(account.Username, client)
	if err != nil {
		s.logger.Error("Authenticate token issue failed", "error", err, "username", username)
		return "", err
	}

	return token, nil
}

// ChangePassword regenerates the salt and hash for an account and persists
// both together. The caller is assumed already authenticated as username;
// identity comes from verified token claims, not from the request body.
func (s *Auther) ChangePassword(ctx context.Context, username, newPassword string) (int64, error) {
	if username == "" || newPassword == "" {
		return 0, ErrNoEmptyString
	}

	account, err := s.findAccount(ctx, username)
	if err != nil {
		return 0, err
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return 0, err
	}
	hash := s.hasher.ComputeHash(newPassword, salt)

	count, err := s.store.UpdatePasswordFields(ctx, account.ID, hash, salt)
	if err != nil {
		s.logger.Error("ChangePassword update failed", "error", err, "username", username)
		return 0, wrapStoreError(err)
	}

	return count, nil
}

// Activate flips activation[client] to true for one account, leaving every
// other client's flag untouched. Restricted to administrators at the
// authorization boundary, not here.
func (s *Auther) Activate(ctx context.Context, username string, client Client) (int64, error) {
	return s.setActivation(ctx, username, client, true)
}

// Deactivate flips activation[client] back to false.
func (s *Auther) Deactivate(ctx context.Context, username string, client Client) (int64, error) {
	return s.setActivation(ctx, username, client, false)
}

// txAccountStore is the optional transactional surface of the account store.
// Stores exposing it get the activation read-modify-write executed inside a
// single transaction so concurrent flips for the same account cannot lose a
// flag.
type txAccountStore interface {
	AccountStore
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error)
	UpdateActivationFieldsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, activation Activation) (int64, error)
}

func (s *Auther) setActivation(ctx context.Context, username string, client Client, active bool) (int64, error) {
	if username == "" {
		return 0, ErrNoEmptyString
	}

	if store, ok := s.store.(txAccountStore); ok {
		return s.setActivationTx(ctx, store, username, client, active)
	}

	account, err := s.findAccount(ctx, username)
	if err != nil {
		return 0, err
	}

	activation := account.Activation.Clone()
	if err := activation.Set(client, active); err != nil {
		return 0, err
	}

	count, err := s.store.UpdateActivationFields(ctx, account.ID, activation)
	if err != nil {
		s.logger.Error("setActivation update failed", "error", err, "username", username, "client", client)
		return 0, wrapStoreError(err)
	}

	return count, nil
}

func (s *Auther) setActivationTx(ctx context.Context, store txAccountStore, username string, client Client, active bool) (int64, error) {
	var count int64

	err := store.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := store.FindByUsernameTx(ctx, tx, username)
		if err != nil {
			if isRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return wrapStoreError(err)
		}

		activation := account.Activation.Clone()
		if err := activation.Set(client, active); err != nil {
			return err
		}

		count, err = store.UpdateActivationFieldsTx(ctx, tx, account.ID, activation)
		if err != nil {
			return wrapStoreError(err)
		}

		return nil
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return 0, err
		}
		s.logger.Error("setActivation transaction failed", "error", err, "username", username, "client", client)
		return 0, wrapStoreError(err)
	}

	return count, nil
}

func (s *Auther) findAccount(ctx context.Context, username string) (*Account, error) {
	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("account lookup failed", "error", err)
		return nil, wrapStoreError(err)
	}
	return account, nil
}

var _ Authenticator = (*Auther)(nil)
