// Package bookmarking keeps one folder of bookmarked post ids per user.
//
// # Folders
//
// A folder is created on first use through FindOrCreate on a unique author
// index, so concurrent first bookmarks still leave exactly one folder.
// Items are appended and pulled atomically.
package bookmarking
