package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persisted identity record. The store owns it; the
// Authenticator only holds a transient reference during an operation.
// PasswordHash and PasswordSalt are always written together and are only
// valid as a pair from the same generation event.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  []byte     `bun:"password_hash,notnull" json:"-"`
	PasswordSalt  []byte     `bun:"password_salt,notnull" json:"-"`
	Activation    Activation `bun:"activation,notnull" json:"activation,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ActiveFor reports the activation flag for one client.
func (a *Account) ActiveFor(client Client) bool {
	if a == nil || a.Activation == nil {
		return false
	}
	return a.Activation.Active(client)
}

// AccountPayload is the external record shape exchanged with callers. The
// Password field carries the plaintext on the way in only; responses never
// populate it.
type AccountPayload struct {
	ID         uuid.UUID       `json:"id,omitempty"`
	Username   string          `json:"username,omitempty"`
	Password   string          `json:"password,omitempty"`
	Email      string          `json:"email,omitempty"`
	FirstName  string          `json:"first_name,omitempty"`
	LastName   string          `json:"last_name,omitempty"`
	Phone      string          `json:"phone_number,omitempty"`
	Activation map[string]bool `json:"activation,omitempty"`
}

// AccountFromPayload converts the external shape into a store record. The
// plaintext password is deliberately NOT copied; hash and salt fields are
// populated by the Authenticator from a fresh generation event.
func AccountFromPayload(p *AccountPayload) *Account {
	if p == nil {
		return nil
	}
	return &Account{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
	}
}

// PayloadFromAccount converts a store record into the external shape. The
// hash and salt never leave the record; Password stays empty.
func PayloadFromAccount(a *Account) *AccountPayload {
	if a == nil {
		return nil
	}
	activation := make(map[string]bool, len(a.Activation))
	for client, active := range a.Activation {
		activation[client.String()] = active
	}
	return &AccountPayload{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Phone:      a.Phone,
		Activation: activation,
	}
}
