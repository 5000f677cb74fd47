package membership

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the bun-backed account store. It satisfies the AccountStore
// contract the Authenticator depends on; lookups report missing rows with
// the repository's not-found error so callers can keep store faults and
// missing records apart.
type Accounts interface {
	repository.Repository[*Account]
	repository.TransactionManager

	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error)
	Insert(ctx context.Context, account *Account) (int64, error)
	InsertTx(ctx context.Context, tx bun.IDB, account *Account) (int64, error)
	UpdatePasswordFields(ctx context.Context, id uuid.UUID, hash, salt []byte) (int64, error)
	UpdatePasswordFieldsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash, salt []byte) (int64, error)
	UpdateActivationFields(ctx context.Context, id uuid.UUID, activation Activation) (int64, error)
	UpdateActivationFieldsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, activation Activation) (int64, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ AccountStore                    = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

// RunInTx lets callers compose the Tx variants below into one transaction.
func (a *accounts) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return a.db.RunInTx(ctx, opts, f)
	}
}

func (a *accounts) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return a.FindByUsernameTx(ctx, a.db, username)
}

func (a *accounts) FindByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*Account, error) {
	return a.findOneTx(ctx, tx, "username", username)
}

func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.FindByIDTx(ctx, a.db, id)
}

func (a *accounts) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error) {
	return a.findOneTx(ctx, tx, "id", id.String())
}

func (a *accounts) findOneTx(ctx context.Context, tx bun.IDB, column, value string) (*Account, error) {
	record := &Account{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	// Rows written before a client was registered read back incomplete.
	record.Activation = record.Activation.Clone()

	return record, nil
}

func (a *accounts) Insert(ctx context.Context, account *Account) (int64, error) {
	return a.InsertTx(ctx, a.db, account)
}

func (a *accounts) InsertTx(ctx context.Context, tx bun.IDB, account *Account) (int64, error) {
	prepareAccountDefaults(account)

	res, err := tx.NewInsert().
		Model(account).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// UpdatePasswordFields writes the hash and salt of a single generation event
// together, touching nothing else on the row.
func (a *accounts) UpdatePasswordFields(ctx context.Context, id uuid.UUID, hash, salt []byte) (int64, error) {
	return a.UpdatePasswordFieldsTx(ctx, a.db, id, hash, salt)
}

func (a *accounts) UpdatePasswordFieldsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash, salt []byte) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("password_hash = ?", hash).
		Set("password_salt = ?", salt).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// UpdateActivationFields persists the full activation map for one account.
func (a *accounts) UpdateActivationFields(ctx context.Context, id uuid.UUID, activation Activation) (int64, error) {
	return a.UpdateActivationFieldsTx(ctx, a.db, id, activation)
}

func (a *accounts) UpdateActivationFieldsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, activation Activation) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("activation = ?", activation).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func prepareAccountDefaults(account *Account) {
	if account == nil {
		return
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.Activation == nil {
		account.Activation = NewActivation()
	}
}
