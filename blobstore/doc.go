// Package blobstore implements the content-addressable blob store: chunked
// streaming upload, length+MD5+SHA-256 triple-key deduplication, and
// orphan collection. It owns no SQL connection of its own; it is driven
// through the Backend interface, which the sqlstore package implements
// against a concrete caller-supplied transaction.
package blobstore
