package vfs

import (
	"errors"
	"os"
	"strings"
)

const (
	fileScheme = "file:///"
	ftpScheme  = "ftp://"
	httpScheme = "http://"
)

var ErrNotLocal = errors.New("not a local file reference")

// IsLocal reports whether name is an absolute path or a file:/// uri.
func IsLocal(name string) bool {
	return strings.HasPrefix(name, "/") || strings.HasPrefix(name, fileScheme)
}

// IsRemote reports whether name uses one of the network schemes left to the
// engine's own transport.
func IsRemote(name string) bool {
	return strings.HasPrefix(name, ftpScheme) || strings.HasPrefix(name, httpScheme)
}

// Resolve computes the real path of the requested file under the virtual root.
//
// file:/// uris bypass the root. Absolute paths are moved under root unless
// they already start with it or exist on disk as given. No canonicalization
// is done on name.
func Resolve(name, root string) (string, error) {
	if !IsLocal(name) {
		return "", ErrNotLocal
	}
	if strings.HasPrefix(name, fileScheme) {
		return name[len(fileScheme)-1:], nil
	}
	if root == "" || strings.HasPrefix(name, root) || exists(name) {
		return name, nil
	}
	return root + name, nil
}

func exists(file string) bool {
	_, err := os.Stat(file)
	return err == nil
}
