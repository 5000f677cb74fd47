package membership

// Client identifies one of the closed set of registered consuming
// applications. The code doubles as the token audience and as the key of the
// per-account activation map.
type Client string

const (
	ClientA Client = "A"
	ClientB Client = "B"
	ClientC Client = "C"
)

// registeredClients is the closed registry; order is stable for audiences.
var registeredClients = []Client{ClientA, ClientB, ClientC}

// RegisteredClients returns the closed set of client identifiers.
func RegisteredClients() []Client {
	out := make([]Client, len(registeredClients))
	copy(out, registeredClients)
	return out
}

// IsRegistered checks the client against the closed registry
func (c Client) IsRegistered() bool {
	switch c {
	case ClientA, ClientB, ClientC:
		return true
	default:
		return false
	}
}

func (c Client) String() string {
	return string(c)
}

// ParseClient resolves a raw client code against the registry.
func ParseClient(raw string) (Client, error) {
	c := Client(raw)
	if !c.IsRegistered() {
		return "", ErrInvalidClient
	}
	return c, nil
}

// Activation maps each registered client to its activation flag. An account's
// map always holds exactly one entry per registered client; flags start false
// and change only through Set.
type Activation map[Client]bool

// NewActivation returns the initial activation state: every registered client
// present and inactive.
func NewActivation() Activation {
	a := make(Activation, len(registeredClients))
	for _, c := range registeredClients {
		a[c] = false
	}
	return a
}

// Active reports the flag for the given client. Unregistered clients are
// never active.
func (a Activation) Active(client Client) bool {
	return a[client]
}

// Set flips the flag for one client, leaving every other entry untouched.
// An unregistered client is an error, not a silent no-op.
func (a Activation) Set(client Client, active bool) error {
	if !client.IsRegistered() {
		return ErrInvalidClient
	}
	a[client] = active
	return nil
}

// Clone returns an independent copy, normalized to one entry per registered
// client so partially populated rows read back into a complete map.
func (a Activation) Clone() Activation {
	out := NewActivation()
	for _, c := range registeredClients {
		if v, ok := a[c]; ok {
			out[c] = v
		}
	}
	return out
}
