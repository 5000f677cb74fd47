// Package membership issues and validates identity credentials for a
// multi-tenant user directory.
//
// Accounts carry a salted HMAC-SHA256 password hash and an independent
// activation flag per registered client application, so a single identity
// can be enabled for client "A" while disabled for client "B". The
// Authenticator composes the credential hasher, the account store, and the
// token service to implement account creation, login, password changes, and
// the per-client activation transitions.
//
// Tokens:
//   - Issued tokens are HS256 JWTs scoped to exactly one client audience,
//     with a fixed issuer and a lifetime configured in seconds. Expiry forces
//     re-authentication; there is no refresh or revocation mechanism.
//   - TokenService carries both halves of the contract: Issue for the
//     authentication path and Validate for the request-authorization layer
//     (signature, issuer, registered audience, expiry).
//
// Activation:
//   - The per-client flags are modeled as a closed Activation map keyed by
//     the Client enumeration. Flags default to false at creation and change
//     only through the Authenticator's Activate/Deactivate operations.
//   - Authentication deliberately does not consult the flags; a deactivated
//     account can still obtain a token. The flags gate administrative
//     eligibility, enforced by the HTTP layer's role checks.
package membership
