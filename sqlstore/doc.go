// Package sqlstore implements archive.Tx and blobstore.Backend against a
// SQL database, in the nine-relation shape described by the core's data
// model. It supports two backends, selected by Dialect: MySQL (via
// go-sql-driver/mysql) for production deployments, and an embedded
// cznic/ql database for tests and single-binary deployments, the same
// dual-backend split the rest of this stack uses for its own storage.
package sqlstore
