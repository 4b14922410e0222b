// Package fileutil provides small filesystem helpers for the command-line
// batch ingestion tool. It is adapted from the teacher's directory-walking
// upload-list builder, trimmed down to the one thing repoarchive's CLI
// actually needs: turning a directory tree into an ordered list of files to
// archive.
package fileutil

import (
	"os"
	"path/filepath"
	"sort"
)

// Discover walks root and returns every regular file found under it, in a
// stable, sorted order so that repeated runs over an unchanged tree produce
// the same document ordering.
func Discover(root string) ([]string, error) {
	var found []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}
