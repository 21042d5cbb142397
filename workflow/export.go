package workflow

import (
	"context"
	"fmt"

	"github.com/filebrowser/transync/catalog"
)

// ExportOptions controls an export run.
type ExportOptions struct {
	// Dir holds the {locale}.json catalogs.
	Dir string
	// SourceLocale is the authoring locale (e.g. "en_GB").
	SourceLocale string
	// DryRun lists the slugs that would be created without posting them.
	DryRun bool
	// OnCreate is called after each create attempt (or planned create in
	// dry-run mode).
	OnCreate func(CreateResult)
}

// CreateResult is the outcome of one create call.
type CreateResult struct {
	Slug string
	Body string
	// StatusCode and Response are zero when the request never got an answer
	// or in dry-run mode.
	StatusCode int
	Response   string
	Err        error
}

// OK reports whether the message was created.
func (r CreateResult) OK() bool {
	return r.Err == nil
}

// ExportReport summarizes an export run.
type ExportReport struct {
	SourceLocale string
	// Local is the number of slugs in the local source catalog.
	Local int
	// Remote is the number of slugs the service already had.
	Remote int
	// Created holds one entry per slug missing remotely, in local order.
	Created []CreateResult
	// Skipped counts local slugs already present remotely.
	Skipped int
	// Changed lists slugs present on both sides whose bodies differ. They
	// are reported only, never updated.
	Changed []string
	DryRun  bool
}

// Failed returns the create attempts that did not succeed.
func (r *ExportReport) Failed() []CreateResult {
	var out []CreateResult
	for _, c := range r.Created {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// Export creates on the service every source-locale slug it does not have
// yet. Keys present remotely are never sent again.
//
// A failure to fetch the remote dictionary or to read the local source
// catalog aborts the run before anything is posted. Individual create
// failures are recorded and the remaining slugs are still sent.
func Export(ctx context.Context, svc Remote, opts ExportOptions) (*ExportReport, error) {
	existing, err := svc.Dictionary(ctx, opts.SourceLocale, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchMessages, err)
	}

	local, err := catalog.ReadFlat(catalogPath(opts.Dir, opts.SourceLocale))
	if err != nil {
		return nil, fmt.Errorf("loading source catalog: %w", err)
	}

	report := &ExportReport{
		SourceLocale: opts.SourceLocale,
		Local:        local.Len(),
		Remote:       existing.Len(),
		DryRun:       opts.DryRun,
	}

	for _, slug := range local.Keys() {
		body, _ := local.Get(slug)

		if remoteBody, ok := existing.Get(slug); ok {
			report.Skipped++
			if remoteBody != body {
				report.Changed = append(report.Changed, slug)
			}
			continue
		}

		result := CreateResult{Slug: slug, Body: body}
		if !opts.DryRun {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			resp, err := svc.CreateMessage(ctx, slug, body)
			if resp != nil {
				result.StatusCode = resp.StatusCode
				result.Response = resp.Body
			}
			result.Err = err
		}

		report.Created = append(report.Created, result)
		if opts.OnCreate != nil {
			opts.OnCreate(result)
		}
	}

	return report, nil
}
