// Package sqlite persists the court's event journal and token ledger in one
// SQLite database.
//
// The journal is append-only and tamper-evident: every event carries a content
// hash, a chain hash linking it to its predecessor and, when a keyring is
// configured, an HMAC signature over the chain hash. The ledger tables hold
// balances and allowances; every ledger operation runs in its own
// transaction.
package sqlite
