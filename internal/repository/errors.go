// Package repository holds the MySQL persistence for users, refresh
// tokens, directory services and blood requests.  Lookups that find no
// row return a per-entity sentinel error that handlers map to HTTP 404.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as fulfilling another user's blood
// request.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
