// Package highlighting stores comments on posts, optionally quoting the post.
package highlighting
