// Package messagingapi implements the messaging-api service, the internal
// ticketed messaging core of the SGE admin dashboard.
//
// The service provides:
//   - A role-filtered contact directory with deterministic ordering
//   - One-to-one conversations identified by a human-readable ticket protocol
//   - Per-user unread tracking reconciled against the row store
//   - Realtime message routing over the PostgreSQL change feed
//   - JWT authentication via the identity provider's JWKS
package messagingapi
