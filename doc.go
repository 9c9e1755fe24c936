// Package accounts provides credential lifecycle primitives: password
// verification with a progressive lockout, stateless signed tokens for
// registration and recovery, and the account flows that tie them together.
//
// Credential verification:
//   - UserProvider checks a presented password against the stored bcrypt
//     hash, which mixes in the account's per user secret. Failed attempts
//     are tracked atomically through the Users store; once the counter
//     reaches MaxLoginAttempts the account is locked and a recovery token
//     is mailed out exactly once per lockout episode.
//
// Tokens:
//   - TokenService signs and validates both token classes. Session tokens
//     embed the per user secret snapshot, so rotating the secret revokes
//     every outstanding session without server side session state. Action
//     tokens prove registration or recovery intent and are never persisted.
//
// Lifecycle:
//   - Accounts orchestrates two phase registration (verification mail with
//     an action token, then CreateAccount redeems it), secret based account
//     unblock with secret rotation, and username existence checks.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther,
//     UserProvider, and Accounts to describe login, lockout, creation, and
//     unblock events. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking authentication.
package accounts
