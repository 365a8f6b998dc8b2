// Package posting stores posts, the markdown entries filed in journals.
package posting
