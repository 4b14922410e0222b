// Package coldstore exports archived blobs to an S3-compatible bucket for
// long-term, infrequently-accessed backup, independent of the SQL chunk
// storage blobstore.Store serves reads and writes from. It is an offline
// mirror, not a cache: nothing in the core consults it on the read or
// write path.
package coldstore
