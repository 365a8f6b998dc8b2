// Package responses projects stored documents into the JSON shapes the API returns.
//
// Every list projection resolves author ids with one batched lookup, and
// post content is rendered from markdown to HTML alongside the raw text.
package responses
