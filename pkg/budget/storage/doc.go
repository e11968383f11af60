// Package storage provides persistence backends for the budget engine.
//
// Two backends implement the budget.Store contract:
//
//   - MemoryStore: in-memory maps guarded by a mutex. Fast, no durability.
//     Suitable for tests and ephemeral deployments.
//
//   - SQLiteStore: durable single-file storage using SQLite in WAL mode.
//     Suitable for single-instance deployments where budgets and alert
//     history must survive restarts.
//
// Both backends enforce the optimistic-concurrency contract of
// Store.CommitBudget: the commit succeeds only when the stored budget still
// carries the expected version, and the budget update, charge record and
// alert land atomically.
package storage
