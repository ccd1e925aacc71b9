// Package repository defines the persistence contracts for the player,
// account, profile, email and remember-me token records, independent of the
// backing store. The pg adapter under internal/store/pg implements them.
//
// Multi-row mutations that must be atomic (registering a player, linking or
// unlinking an account, rotating a remember-me token) are exposed as single
// repository operations so adapters can run them inside one transaction.
package repository
