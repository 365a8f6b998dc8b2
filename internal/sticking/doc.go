// Package sticking stores stickers attached to posts.
package sticking
