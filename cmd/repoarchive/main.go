package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ndlib/repoarchive/archive"
	"github.com/ndlib/repoarchive/blobstore"
	"github.com/ndlib/repoarchive/server"
	"github.com/ndlib/repoarchive/sqlstore"
)

// Usage mirrors cmd/bclient's own multi-action help block: one binary,
// one leading action argument, flags afterward.
const Usage = `
Usage:

  repoarchive [-config file] serve
  repoarchive [-config file] ingest <manifest.json>

Actions:

  serve    run the read-only REST frontage
  ingest   batch-archive documents described by a JSON manifest
`

func main() {
	configPath := flag.String("config", "", "path to a repoarchive.toml config file")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, Usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("repoarchive: loading config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("repoarchive: opening store: %v", err)
	}
	defer store.Close()

	blobs := blobstore.New()
	if cfg.ChunkSize > 0 {
		blobs.ChunkSize = cfg.ChunkSize
	}
	if cfg.MemoryLimit > 0 {
		blobs.MemoryLimit = cfg.MemoryLimit
	}

	resolver := newRegistryResolver()
	a := archive.New(resolver, blobs)

	switch flag.Arg(0) {
	case "serve":
		runServe(a, store, cfg)
	case "ingest":
		if flag.NArg() < 2 {
			log.Fatal("repoarchive: ingest requires a manifest path")
		}
		runIngestCommand(a, store, resolver, flag.Arg(1))
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func openStore(cfg Config) (*sqlstore.Store, error) {
	switch cfg.Dialect {
	case "mysql":
		return sqlstore.OpenMySQL(cfg.DSN)
	case "ql", "":
		return sqlstore.OpenQL(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown dialect %q", cfg.Dialect)
	}
}

func runServe(a *archive.Archive, store *sqlstore.Store, cfg Config) {
	srv := server.New(a, func() (archive.Tx, error) { return store.Begin() })
	stop := time.Duration(cfg.StopTimeout) * time.Second
	if stop <= 0 {
		stop = 10 * time.Second
	}
	log.Printf("repoarchive: listening on %s", cfg.ListenAddr)
	if err := srv.Run(cfg.ListenAddr, stop); err != nil {
		log.Fatalf("repoarchive: server exited: %v", err)
	}
}

func runIngestCommand(a *archive.Archive, store *sqlstore.Store, resolver *registryResolver, manifestPath string) {
	tx, err := store.Begin()
	if err != nil {
		log.Fatalf("repoarchive: begin transaction: %v", err)
	}
	if err := runIngest(a, tx, resolver, manifestPath); err != nil {
		tx.Rollback()
		log.Fatalf("repoarchive: ingest failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("repoarchive: commit: %v", err)
	}
	log.Printf("repoarchive: ingest of %s complete", manifestPath)
}
