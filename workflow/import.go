package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/filebrowser/transync/catalog"
	"github.com/filebrowser/transync/config"
)

// ImportOptions controls an import run.
type ImportOptions struct {
	// Dir receives the {locale}.json catalogs.
	Dir string
	// SourceLocale gets the removed-slug diagnostic before being overwritten.
	SourceLocale string
	// FallbackLocale fills slugs a locale has not translated yet.
	// Defaults to SourceLocale.
	FallbackLocale string
	// DryRun fetches and diffs but writes nothing.
	DryRun bool
	// OnLanguage is called once per language after it has been handled.
	OnLanguage func(LanguageResult)
	// OnRemoved is called for every source slug that disappeared upstream.
	OnRemoved func(RemovedEntry)
}

// LanguageResult is the outcome of one language.
type LanguageResult struct {
	Code string
	// Path is the catalog file for the language.
	Path string
	// Keys is the number of slugs fetched.
	Keys int
	// Written is true when Path was overwritten.
	Written bool
	Err     error
}

// OK reports whether the language was fetched and converted.
func (r LanguageResult) OK() bool {
	return r.Err == nil
}

// RemovedEntry is a source slug present locally but gone from the service.
type RemovedEntry struct {
	Slug  string
	Value string
}

func (e RemovedEntry) String() string {
	return fmt.Sprintf("removed source translation -> %s: \"%s\"", e.Slug, e.Value)
}

// ImportReport summarizes an import run.
type ImportReport struct {
	Languages []LanguageResult
	Removed   []RemovedEntry
	DryRun    bool
}

// Failed returns the languages that could not be imported.
func (r *ImportReport) Failed() []LanguageResult {
	var out []LanguageResult
	for _, l := range r.Languages {
		if !l.OK() {
			out = append(out, l)
		}
	}
	return out
}

// Written returns the languages whose catalog file was overwritten.
func (r *ImportReport) Written() []LanguageResult {
	var out []LanguageResult
	for _, l := range r.Languages {
		if l.Written {
			out = append(out, l)
		}
	}
	return out
}

// Import writes every locale the service supports to {Dir}/{code}.json.
//
// Failing to list languages aborts the run. A language whose dictionary
// cannot be fetched or converted is recorded as failed and its file is left
// untouched. For the source locale the previous file is read first and
// every slug missing from the fresh dictionary is reported as removed;
// failing to read it aborts the run.
func Import(ctx context.Context, svc Remote, opts ImportOptions) (*ImportReport, error) {
	fallback := opts.FallbackLocale
	if fallback == "" {
		fallback = opts.SourceLocale
	}

	langs, err := svc.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchLanguages, err)
	}

	report := &ImportReport{DryRun: opts.DryRun}

	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := LanguageResult{Code: lang.Code, Path: catalogPath(opts.Dir, lang.Code)}

		removed, err := importLanguage(ctx, svc, opts, fallback, &result)
		if err != nil {
			return report, err
		}

		for _, r := range removed {
			report.Removed = append(report.Removed, r)
			if opts.OnRemoved != nil {
				opts.OnRemoved(r)
			}
		}

		report.Languages = append(report.Languages, result)
		if opts.OnLanguage != nil {
			opts.OnLanguage(result)
		}
	}

	return report, nil
}

// importLanguage fetches, converts and writes one language. Per-language
// failures are stored in result; the returned error is fatal for the run.
func importLanguage(ctx context.Context, svc Remote, opts ImportOptions, fallback string, result *LanguageResult) ([]RemovedEntry, error) {
	if err := checkLanguageCode(result.Code); err != nil {
		result.Path = ""
		result.Err = err
		return nil, nil
	}

	dict, err := svc.Dictionary(ctx, result.Code, fallback)
	if err != nil {
		result.Err = fmt.Errorf("could not fetch translations for messages: %s: %w", result.Code, err)
		return nil, nil
	}
	result.Keys = dict.Len()

	tree, err := catalog.Deflatten(dict)
	if err != nil {
		result.Err = fmt.Errorf("converting %s: %w", result.Code, err)
		return nil, nil
	}

	var removed []RemovedEntry
	if result.Code == opts.SourceLocale {
		current, err := catalog.ReadFlat(result.Path)
		if err != nil {
			return nil, fmt.Errorf("loading source catalog: %w", err)
		}
		removed = RemovedSlugs(current, dict)
	}

	if opts.DryRun {
		return removed, nil
	}
	if err := catalog.WriteTree(result.Path, tree); err != nil {
		result.Err = err
		return removed, nil
	}
	result.Written = true
	return removed, nil
}

// checkLanguageCode rejects codes that are not locale identifiers, since the
// code becomes a file name under Dir.
func checkLanguageCode(code string) error {
	if code == "" || strings.ContainsAny(code, `/\`) || strings.Contains(code, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
	}
	if _, err := config.ParseLocale(code); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidLanguage, code, err)
	}
	return nil
}

// RemovedSlugs returns the entries of current whose slug is absent from
// fresh, in current's order.
func RemovedSlugs(current, fresh *catalog.Flat) []RemovedEntry {
	var out []RemovedEntry
	for _, slug := range current.Missing(fresh) {
		v, _ := current.Get(slug)
		out = append(out, RemovedEntry{Slug: slug, Value: v})
	}
	return out
}
