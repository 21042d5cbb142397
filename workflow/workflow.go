// Package workflow implements the two synchronization directions between
// local nested JSON catalogs and the translation service.
//
// Export pushes source-locale slugs that the service lacks. Import pulls
// every supported locale and writes it to disk. Both run strictly
// sequentially and never print: outcomes are collected in a report and
// streamed through the optional callbacks.
package workflow

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/filebrowser/transync/catalog"
	"github.com/filebrowser/transync/remote"
)

var (
	// ErrFetchMessages aborts an export when the source dictionary cannot be fetched.
	ErrFetchMessages = errors.New("could not fetch existing messages")
	// ErrFetchLanguages aborts an import when the language list cannot be fetched.
	ErrFetchLanguages = errors.New("could not fetch brand languages")
	// ErrInvalidLanguage marks a language code from the service that cannot
	// be used as a catalog file name.
	ErrInvalidLanguage = errors.New("invalid language code")
)

// Remote is the part of the translation service the workflows need.
// *remote.Client satisfies it.
type Remote interface {
	Dictionary(ctx context.Context, locale, fallback string) (*catalog.Flat, error)
	Languages(ctx context.Context) ([]remote.Language, error)
	CreateMessage(ctx context.Context, slug, body string) (*remote.Response, error)
}

var _ Remote = (*remote.Client)(nil)

// catalogPath returns {dir}/{locale}.json.
func catalogPath(dir, locale string) string {
	return filepath.Join(dir, catalog.FileName(locale))
}
