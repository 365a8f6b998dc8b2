// Package journaling stores journals: named, optionally private lists of post ids.
//
// Append and Remove change the item list in a single store operation, so
// concurrent writers never lose each other's entries.
package journaling
