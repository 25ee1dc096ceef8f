// Package models defines the core domain models for chitfund.
//
// # Entities
//
//   - Group: a chit fund group with a fixed roster size, contribution and duration
//   - Auction: the reverse auction that decides one cycle's winner
//   - Bid: one member's sealed offer in an auction
//   - LedgerEntry: what one member contributed and received in one settled cycle
//   - Settlement: the outcome of settling one cycle
//   - User: a registered account whose wallet address is its member identifier
//
// Members are referenced by identifier only. Groups never hold pointers to other groups
// or to users, so each group can be locked and persisted on its own.
//
// # Money
//
// All currency values are Amount, an integer count of minor units. Nothing in the
// settlement path uses floating point.
package models
