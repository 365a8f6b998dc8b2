// Package app composes the folio concepts into the operations the HTTP API exposes.
//
// # Overview
//
// Each concept (identity, sessioning, posting, journaling, highlighting,
// sticking, bookmarking, friending) owns one collection and knows nothing
// about the others. App is the only place where they meet: it checks the
// caller's session, guards ownership, and runs the multi-collection
// sequences such as deleting a journal together with its posts and their
// annotations.
//
// # Multi-step operations
//
// Operations that touch several collections run as a named cascade. When a
// step fails after earlier steps committed, the error is a
// fault.PartialFailureError listing the completed steps. Creating a post
// compensates a failed journal append by deleting the new post.
//
// # Errors
//
// Methods return fault errors carrying raw ids. The gateway turns them into
// display messages through the registry returned by Errors.
package app
