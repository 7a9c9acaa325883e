// Package store holds the one piece of state that survives between
// refreshes: the most recently generated sensor series. A Cache owns a
// single (generated_at, series) slot and regenerates it once it is older
// than the caller's TTL. There is no invalidation API; entries expire purely
// by age.
package store
