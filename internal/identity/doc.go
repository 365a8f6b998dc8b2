// Package identity manages user accounts.
//
// # Overview
//
// Usernames are unique through a store index, so two concurrent sign-ups
// with the same name cannot both succeed. Passwords are stored as bcrypt
// hashes and never leave the package: the public User projection carries
// only the id, username and timestamps.
//
// IDsToUsernames resolves a batch of ids in one read and renders ids that
// no longer exist as DELETED_USER, which is how content outlives its author.
package identity
