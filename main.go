// transync — keeps nested JSON translation catalogs in sync with a
// translation service.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/filebrowser/transync/config"
	"github.com/filebrowser/transync/langmeta"
	"github.com/filebrowser/transync/remote"
	"github.com/filebrowser/transync/settings"
	"github.com/filebrowser/transync/workflow"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

var (
	tagInfo    = color.New(color.FgBlue).SprintFunc()
	tagSuccess = color.New(color.FgGreen).SprintFunc()
	tagWarning = color.New(color.FgYellow, color.Bold).SprintFunc()
	tagError   = color.New(color.FgRed).SprintFunc()
	heading    = color.New(color.FgBlue).SprintFunc()
)

// logOut receives all log lines; tests swap it.
var logOut io.Writer = os.Stderr

func logLine(tag, format string, args ...any) {
	fmt.Fprintf(logOut, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

func logInfo(format string, args ...any) {
	logLine(tagInfo("[INFO]"), format, args...)
}

func logSuccess(format string, args ...any) {
	logLine(tagSuccess("[OK]"), format, args...)
}

func logWarning(format string, args ...any) {
	logLine(tagWarning("[WARN]"), format, args...)
}

func logError(format string, args ...any) {
	logLine(tagError("[ERROR]"), format, args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	profile    string
	configFile string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transync",
		Short: "Sync nested JSON translation catalogs with a translation service",
		Long: `transync keeps {locale}.json translation catalogs in sync with a
translation service.

Commands:
  export      Push source-locale strings the service does not have yet
  import      Pull every supported locale and write it to disk
  auth        Manage the stored API key

Configuration is read from .transync.yaml or from the INI file "config"
in the project root ([main] section with host, brand and key). The
TRANSYNC_HOST, TRANSYNC_BRAND and TRANSYNC_KEY environment variables
(or a .env file) override file settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&profile, "profile", config.DefaultProfile, "Configuration profile")
	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: auto-detect)")

	root.AddCommand(
		newExportCmd(),
		newImportCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// loadConfig resolves and validates the configuration for the selected profile.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Root:      rootDir,
		Profile:   profile,
		File:      configFile,
		LookupKey: settings.GetAPIKey,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *remote.Client {
	return remote.New(remote.Options{
		Host:      cfg.Host,
		Brand:     cfg.Brand,
		Key:       cfg.Key,
		Timeout:   cfg.Timeout,
		Proxy:     cfg.Proxy,
		UserAgent: "transync/" + version,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Push new source-locale strings to the translation service",
		Long: `Read {dir}/{source_locale}.json, compare it with the service's dictionary
for the source locale and create every string the service does not have yet.

Existing remote strings are never updated or deleted. A failing create is
reported and the remaining strings are still sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runExport(ctx, cmd.OutOrStdout(), cfg, newClient(cfg), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the strings that would be created without sending them")
	return cmd
}

func runExport(ctx context.Context, out io.Writer, cfg *config.Config, svc workflow.Remote, dryRun bool) error {
	logInfo("Exporting %s from %s to %s (brand %s)", langmeta.Label(cfg.SourceLocale), cfg.Dir, cfg.Host, cfg.Brand)

	report, err := workflow.Export(ctx, svc, workflow.ExportOptions{
		Dir:          cfg.Dir,
		SourceLocale: cfg.SourceLocale,
		DryRun:       dryRun,
		OnCreate: func(r workflow.CreateResult) {
			fmt.Fprintln(out, formatCreate(r, dryRun))
		},
	})
	if err != nil {
		return err
	}

	for _, slug := range report.Changed {
		logWarning("source text changed locally but is not updated remotely -> %s", slug)
	}

	failed := report.Failed()
	switch {
	case dryRun:
		logInfo("Dry run: %d new, %d already present", len(report.Created), report.Skipped)
	case len(failed) > 0:
		logWarning("Created %d of %d new strings (%d failed, %d already present)",
			len(report.Created)-len(failed), len(report.Created), len(failed), report.Skipped)
	case len(report.Created) == 0:
		logSuccess("Nothing to export, all %d strings already present", report.Skipped)
	default:
		logSuccess("Created %d new strings (%d already present)", len(report.Created), report.Skipped)
	}
	return nil
}

// formatCreate renders one create outcome as "status body".
func formatCreate(r workflow.CreateResult, dryRun bool) string {
	if dryRun {
		return fmt.Sprintf("would create %s: %q", r.Slug, r.Body)
	}
	if r.StatusCode == 0 && r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Slug, r.Err)
	}
	return fmt.Sprintf("%d %s", r.StatusCode, r.Response)
}

// ---------------------------------------------------------------------------
// import
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Pull all supported locales from the translation service",
		Long: `Fetch the brand's language list and write every language's dictionary
to {dir}/{code}.json as nested JSON, replacing the previous content.

Before the source locale is replaced, strings that exist locally but are
gone from the service are reported. A language that cannot be fetched is
reported and its file is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runImport(ctx, cfg, newClient(cfg), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Fetch and compare without writing files")
	return cmd
}

func runImport(ctx context.Context, cfg *config.Config, svc workflow.Remote, dryRun bool) error {
	logInfo("Importing brand %s from %s into %s", cfg.Brand, cfg.Host, cfg.Dir)

	report, err := workflow.Import(ctx, svc, workflow.ImportOptions{
		Dir:            cfg.Dir,
		SourceLocale:   cfg.SourceLocale,
		FallbackLocale: cfg.FallbackLocale,
		DryRun:         dryRun,
		OnLanguage: func(r workflow.LanguageResult) {
			switch {
			case r.Err != nil:
				logError("%v", r.Err)
			case r.Written:
				logInfo("%s: %d strings -> %s", langmeta.Label(r.Code), r.Keys, r.Path)
			default:
				logInfo("%s: %d strings", langmeta.Label(r.Code), r.Keys)
			}
		},
		OnRemoved: func(e workflow.RemovedEntry) {
			logWarning("%s", e)
		},
	})
	if err != nil {
		return err
	}

	failed := report.Failed()
	if len(failed) > 0 {
		codes := make([]string, len(failed))
		for i, f := range failed {
			codes[i] = f.Code
		}
		logWarning("Imported %d of %d languages (failed: %s)",
			len(report.Languages)-len(failed), len(report.Languages), strings.Join(codes, ", "))
		return nil
	}
	if dryRun {
		logInfo("Dry run: %d languages fetched, nothing written", len(report.Languages))
		return nil
	}
	logSuccess("Imported %d languages", len(report.Written()))
	return nil
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored API key",
		Long: `Store the translation service API key outside the project, so it does
not have to be written into a committed config file.

Keys are stored per host in ` + settings.FilePath() + ` (mode 0600).
The key from TRANSYNC_KEY or the config file takes precedence.

Examples:
  transync auth set-key                     Prompt for the key of the configured host
  transync auth set-key --host https://x    Store a key for another host
  transync auth remove-key                  Remove the key of the configured host
  transync auth show                        Show stored keys (masked)`,
	}

	cmd.AddCommand(
		newAuthSetKeyCmd(),
		newAuthRemoveKeyCmd(),
		newAuthShowCmd(),
	)

	return cmd
}

// authHost returns the --host flag or the host of the configured profile.
func authHost(flagHost string) (string, error) {
	if flagHost != "" {
		return flagHost, nil
	}
	cfg, err := config.Load(config.LoadOptions{Root: rootDir, Profile: profile, File: configFile})
	if err != nil {
		return "", err
	}
	if cfg.Host == "" {
		return "", errors.New("no host configured, pass --host")
	}
	return cfg.Host, nil
}

func newAuthSetKeyCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the API key for a host",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := authHost(host)
			if err != nil {
				return err
			}

			fmt.Fprintf(logOut, "\n%s\n", heading("API key for "+h))
			fmt.Fprintln(logOut, strings.Repeat("─", 60))

			existing := settings.GetAPIKey(h)
			if existing != "" {
				fmt.Fprintf(logOut, "  Current key: %s\n", settings.MaskKey(existing))
				fmt.Fprintf(logOut, "  Enter new key to replace, or press Enter to keep: ")
			} else {
				fmt.Fprintf(logOut, "  Enter API key: ")
			}

			key, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if key == "" {
				if existing != "" {
					logInfo("Keeping existing key")
					return nil
				}
				return errors.New("no API key provided")
			}

			if err := settings.SetAPIKey(h, key); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}
			logSuccess("API key for %s saved", h)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Service host (default: host of the profile)")
	return cmd
}

func newAuthRemoveKeyCmd() *cobra.Command {
	var host string
	var all bool

	cmd := &cobra.Command{
		Use:   "remove-key",
		Short: "Remove a stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("All stored keys removed")
				return nil
			}

			h, err := authHost(host)
			if err != nil {
				return err
			}
			if err := settings.Remove(h); err != nil {
				return fmt.Errorf("removing API key: %w", err)
			}
			logSuccess("API key for %s removed", h)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Service host (default: host of the profile)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove the keys of all hosts")
	return cmd
}

func newAuthShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored API keys",
		Run: func(cmd *cobra.Command, args []string) {
			store := settings.Load()
			if len(store) == 0 {
				logInfo("No stored keys (%s)", settings.FilePath())
				return
			}
			out := cmd.OutOrStdout()
			for _, h := range store.Hosts() {
				fmt.Fprintf(out, "  %-40s %s\n", h, settings.MaskKey(store[h].Key))
			}
		},
	}
}

// readLine reads one trimmed line from r.
func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}
