package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/antonholmquist/jason"

	"github.com/ndlib/repoarchive/archive"
	"github.com/ndlib/repoarchive/fileutil"
)

// runIngest reads a JSON manifest describing a batch of documents to
// archive and calls ArchiveVersion once per entry, the CLI's stand-in for
// the embedding application that would otherwise drive the archive
// directly. The manifest format mirrors the loose, ad hoc JSON bclient
// parses out of a bendo item response with jason rather than a strongly
// typed struct, since a batch-ingest manifest is operator-authored and
// forgiving of missing optional fields.
func runIngest(a *archive.Archive, tx archive.Tx, resolver *registryResolver, manifestPath string) error {
	f, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	root, err := jason.NewObjectFromReader(f)
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	documents, err := root.GetObjectArray("documents")
	if err != nil {
		return fmt.Errorf("manifest missing \"documents\" array: %w", err)
	}

	for i, doc := range documents {
		if err := ingestOne(a, tx, resolver, doc); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

func ingestOne(a *archive.Archive, tx archive.Tx, resolver *registryResolver, doc *jason.Object) error {
	docid, err := doc.GetInt64("docid")
	if err != nil {
		return fmt.Errorf("missing docid: %w", err)
	}
	path, err := doc.GetString("path")
	if err != nil {
		return fmt.Errorf("missing path: %w", err)
	}
	user, err := doc.GetString("user")
	if err != nil {
		user = "repoarchive-ingest"
	}
	module, _ := doc.GetString("class_module")
	name, _ := doc.GetString("class_name")
	if module == "" || name == "" {
		return fmt.Errorf("docid %d: class_module and class_name are required", docid)
	}
	handle := resolver.intern(module, name)

	input := archive.VersionInput{
		Docid: docid,
		Path:  path,
		User:  user,
		Class: handle,
		Blobs: make(map[string]archive.BlobSource),
	}
	if title, err := doc.GetString("title"); err == nil {
		input.Title = &title
	}

	sourceRoot, err := doc.GetString("source_dir")
	if err == nil && sourceRoot != "" {
		files, err := fileutil.Discover(sourceRoot)
		if err != nil {
			return fmt.Errorf("discover %s: %w", sourceRoot, err)
		}
		for _, f := range files {
			name := filepath.Base(f)
			input.Blobs[name] = archive.BlobSource{Path: f}
		}
	}
	if blobs, err := doc.GetObject("blobs"); err == nil {
		m, err := blobs.Map()
		if err != nil {
			return fmt.Errorf("docid %d: bad blobs object: %w", docid, err)
		}
		for name, v := range m {
			p, err := v.String()
			if err != nil {
				return fmt.Errorf("docid %d: blob %q is not a path string: %w", docid, name, err)
			}
			input.Blobs[name] = archive.BlobSource{Path: p}
		}
	}

	_, err = a.ArchiveVersion(tx, input)
	return err
}
