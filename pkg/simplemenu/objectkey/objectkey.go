// Package objectkey implements the menu object key convention.
//
// Every menu image lives at "menu/<zone>/<name>". The zone is one of a small
// fixed set of path prefixes and the name is the menu item's base name, which
// is shared by all of the item's per-zone images. The visibility sidecar is
// stored under a reserved key outside every zone prefix.
package objectkey

import (
	"errors"
	"path"
	"strings"
)

const (
	// Root is the top-level prefix shared by all menu objects.
	Root = "menu"

	// Separator separates path components in a key.
	Separator = "/"

	// ReservedPrefix marks names that are never menu items.
	ReservedPrefix = "_"

	// SidecarKey holds the visibility document.
	SidecarKey = Root + Separator + ReservedPrefix + "meta" + Separator + "visibility.json"
)

var (
	// ErrEmptyName is returned for blank names.
	ErrEmptyName = errors.New("name is required")

	// ErrNameSeparator is returned when a name contains a path separator.
	ErrNameSeparator = errors.New("name must not contain '/' or '\\'")

	// ErrReservedName is returned for names starting with the reserved prefix.
	ErrReservedName = errors.New("name must not start with '_'")

	// ErrDotName is returned for "." and "..", which resolve to directories.
	ErrDotName = errors.New("name must not be '.' or '..'")
)

// Prefix returns the listing prefix of a zone, including the trailing separator.
func Prefix(zone string) string {
	return Root + Separator + zone + Separator
}

// Key returns the object key of name inside zone.
func Key(zone, name string) string {
	return Prefix(zone) + name
}

// BaseName derives the base name from a key listed under zone.
// ok is false for keys outside the zone, nested keys and reserved names.
func BaseName(zone, key string) (string, bool) {
	prefix := Prefix(zone)
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(key, prefix)
	if name == "" || strings.Contains(name, Separator) || strings.HasPrefix(name, ReservedPrefix) {
		return "", false
	}
	return name, true
}

// ValidateName checks that name can be used as a base name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(name, "/\\") {
		return ErrNameSeparator
	}
	if name == "." || name == ".." {
		return ErrDotName
	}
	if strings.HasPrefix(name, ReservedPrefix) {
		return ErrReservedName
	}
	return nil
}

// NameFromFilename strips directories and the extension from an uploaded
// filename and sanitizes the rest into a base name.
func NameFromFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return Sanitize(strings.TrimSuffix(base, path.Ext(base)))
}

// Sanitize replaces characters that would break the key convention.
func Sanitize(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = strings.TrimSpace(replacer.Replace(name))
	return strings.TrimLeft(name, ReservedPrefix)
}
