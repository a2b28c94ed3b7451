// Package dojo implements the Dojo helper leaderboard: ingesting replies from
// the pinned help thread, tallying per-author points for a window, checking
// stored records against upstream, and pruning old records.
//
// The package owns no I/O. Persistence and the forum API are reached through
// the narrow interfaces declared in types.go, so every operation can be
// exercised with in-memory fakes.
package dojo
