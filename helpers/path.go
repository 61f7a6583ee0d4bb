package helpers

import "github.com/mitchellh/go-homedir"

// PathResolver turns a user supplied path into the path that is opened.
type PathResolver func(path string) (string, error)

// ExpandHome is the default PathResolver. A leading "~" or "~/" is replaced
// with the current user's home directory; other paths are returned as is.
// "~user" forms are rejected.
func ExpandHome(path string) (string, error) {
	return homedir.Expand(path)
}
