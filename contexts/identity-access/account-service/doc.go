// Package accountservice implements registration, login, and the opaque
// bearer/refresh token lifecycle inside the identity-access context. The
// voting core consumes only the resolved user id string this module hands to
// the platform middleware.
package accountservice
