// Package urls builds absolute links to the league website.
package urls

import "strings"

// Builder turns a site path into an absolute URL.
type Builder interface {
	AbsURL(path string) string
}

// Base prefixes paths with a fixed site root.
type Base struct {
	root string
}

// New creates a Base builder for the given site root, e.g. "https://www.lichess4545.com".
func New(root string) *Base {
	return &Base{root: strings.TrimRight(root, "/")}
}

// AbsURL returns path unchanged when it is already absolute.
func (b *Base) AbsURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return b.root + "/" + strings.TrimLeft(path, "/")
}
