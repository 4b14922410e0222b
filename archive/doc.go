// Package archive implements a document version archive with container
// tracking: monotonic per-document versioning, content-addressable blob
// storage (via the blobstore package), and an auditable history of
// container membership, including deletions and moves across containers.
//
// Every public operation runs inside a caller-supplied transaction (a
// Tx obtained from a Store). The archive never opens or commits a
// transaction itself.
package archive
