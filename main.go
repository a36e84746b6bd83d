package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/firefart/dmarcreport/internal/config"
	"github.com/firefart/dmarcreport/internal/dmarc"
	"github.com/firefart/dmarcreport/internal/dns"
	"github.com/firefart/dmarcreport/internal/loader"
	"github.com/firefart/dmarcreport/internal/view"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "dmarcreport",
	})

	// trap Ctrl+C and call cancel on the context
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()

	go func() {
		select {
		case <-c:
			logger.Info("CTRL+C received")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := newRootCommand(logger, os.Stdout).ExecuteContext(ctx); err != nil {
		logger.Error(err)
		cancel()
		os.Exit(1) // nolint: gocritic
	}
}

func newRootCommand(logger *log.Logger, stdout io.Writer) *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:   "dmarcreport [flags] <directory>",
		Short: "Summarize a directory of DMARC aggregate reports",
		Long: `dmarcreport reads every DMARC aggregate report (.xml, .gz, .zip or .eml)
in a directory and prints one of several views over them.

Output formats:
  summary   pass/fail totals and source IPs (default)
  stream    one line per record
  sourceip  all failing source IPs by volume
  domain    pass/fail per policy domain
  from      pass/fail per policy domain and header from
  json      the normalized reports as JSON`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.GetConfig(v, args[0])
			if err != nil {
				return err
			}
			if settings.Debug {
				logger.SetLevel(log.DebugLevel)
			}
			// usage is only interesting for invalid arguments
			cmd.SilenceUsage = true

			opts := view.Options{
				Color: !settings.NoColor && isTerminal(stdout),
			}
			return run(cmd.Context(), settings, logger, opts, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringP(config.KeyOutputFormat, "O", view.FormatSummary.String(), "output format ("+strings.Join(view.FormatNames(), "|")+")")
	flags.StringP(config.KeyDomain, "d", "", "only include reports published for this domain (case insensitive)")
	flags.BoolP(config.KeyNoColor, "C", false, "disable colored output")
	flags.BoolP(config.KeyResolve, "r", false, "annotate source IPs with their reverse DNS names")
	flags.String(config.KeyDNSServer, "", "DNS server (host:port) for reverse lookups, defaults to the system resolver")
	flags.Duration(config.KeyDNSTimeout, v.GetDuration(config.KeyDNSTimeout), "timeout of a single reverse lookup")
	flags.String(config.KeyConfig, "", "optional config file")
	flags.Bool(config.KeyDebug, false, "print debug output")
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("could not bind flags: %v", err))
	}

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func run(ctx context.Context, settings *config.Configuration, logger *log.Logger, opts view.Options, w io.Writer) error {
	l := loader.NewOsLoader(logger, dmarc.NewNormalizer(settings.Domain))
	reports, err := l.Load(ctx, settings.Directory)
	if err != nil {
		// per file errors were already logged by the loader
		var merr *multierror.Error
		if !errors.As(err, &merr) {
			return err
		}
		logger.Warn("some files were skipped", "skipped", merr.Len(), "loaded", len(reports))
	}
	logger.Debug("loaded reports", "count", len(reports), "format", settings.Format)

	if settings.Resolve {
		opts.Resolver = dns.NewCachedResolver(ctx, settings.DNSServer, settings.DNSConnectTimeout, settings.DNSTimeout, settings.DNSCacheTimeout, logger)
	}

	if err := view.New(settings.Format, opts).Render(w, reports); err != nil {
		return fmt.Errorf("could not render %s view: %w", settings.Format, err)
	}
	return nil
}
