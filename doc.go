// Package identity implements the account and access subsystem of the
// forum platform: registration with email verification, credential
// authentication issuing access and refresh token pairs, password
// management, account activation state, and a profile based permission
// model.
//
// The package is organized around a small set of collaborators:
//
//   - PasswordHasher wraps bcrypt credential hashing.
//   - TokenService mints and verifies signed session tokens.
//   - Accounts is the persistence interface backed by bun.
//   - AccountProvider adapts stored accounts to the IdentityProvider
//     interface used during login.
//   - IdentityService coordinates the account lifecycle commands inside
//     database transactions.
//
// HTTP transport is optional; RegisterIdentityRoutes mounts a JSON REST
// surface on any router.Router implementation.
package identity
