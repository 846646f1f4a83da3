package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
	"parcoursupstats/internal/components/progress"
	"parcoursupstats/internal/components/telemetry"
	"parcoursupstats/internal/formation"
	"parcoursupstats/internal/scrapers/parcoursup"
	"parcoursupstats/lib/serviceutil"
	libtelemetry "parcoursupstats/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	scrapeOut      *string
	scrapeCommunes *[]string
	scrapeDedupe   *bool
	scrapeDump     *string
)

func init() {
	scrapeOut = scrapeCmd.Flags().StringP("out", "o", "", "The CSV file to write, overrides the config.")
	scrapeCommunes = scrapeCmd.Flags().StringArrayP("commune", "c", nil, "Only crawl the communes matching this name, can be repeated.")
	scrapeDedupe = scrapeCmd.Flags().Bool("dedupe", false, "Drop formations listed under more than one commune.")
	scrapeDump = scrapeCmd.Flags().String("dump", "", "Write every exchange with the portal to this directory.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--out <path/to/output.csv>] [--commune <name>]... [--dedupe] [--dump <dir>]",
	Short: "Scrapes every formation of the portal and writes their figures to a CSV file.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cmd.Flags().Changed("out") {
			cfg.Output = *scrapeOut
		}
		if cmd.Flags().Changed("commune") {
			cfg.Communes = *scrapeCommunes
		}
		if cmd.Flags().Changed("dedupe") {
			cfg.Dedupe = *scrapeDedupe
		}
		if cmd.Flags().Changed("dump") {
			cfg.DumpDir = *scrapeDump
		}

		t1 := time.Now()
		written, err := runScrape(cmd.Context(), cfg, cmd.OutOrStdout())
		if err != nil {
			serviceutil.Fatal("failed to scrape", err)
		}
		slog.Info(
			"scraping done",
			"path", cfg.Output,
			"rows", written,
			"seconds", time.Since(t1).Seconds(),
		)
	},
}

// runScrape returns only once the telemetry providers are flushed, Fatal exits
// without running defers.
func runScrape(ctx context.Context, cfg Config, out io.Writer) (int, error) {
	providers, err := libtelemetry.Setup(ctx, "parcoursup-cli", cfg.Telemetry)
	if err != nil {
		return 0, fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		err := providers.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()
	return scrape(ctx, cfg, out)
}

func scrape(ctx context.Context, cfg Config, out io.Writer) (int, error) {
	tel := telemetry.SlogAPI{}

	client, err := newClient(cfg, tel)
	if err != nil {
		return 0, err
	}
	scraper := parcoursup.NewScraper(client, tel, parcoursup.ScraperOptions{
		Communes:        cfg.Communes,
		Dedupe:          cfg.Dedupe,
		CrawlProgress:   progress.NewBar(out, progress.Options{}).Update,
		ExtractProgress: progress.NewBar(out, progress.Options{}).Update,
	})

	fmt.Fprintln(out, "Récupération Information Ville")
	filters, err := scraper.Filters(ctx)
	if err != nil {
		return 0, err
	}
	formations, err := scraper.CrawlAll(ctx, filters)
	if err != nil {
		return 0, err
	}

	fmt.Fprintln(out, "\r\nTraitement Formation")
	err = scraper.ExtractAll(ctx, formations)
	if err != nil {
		return 0, err
	}

	fmt.Fprintln(out, "\r\nEcriture fichier CSV")
	bar := progress.NewBar(out, progress.Options{})
	bar.Update(0, len(formations))
	return formation.WriteCSVFile(cfg.Output, formations, formation.WriteOptions{
		BaseUrl:  client.BaseUrl,
		Tel:      telemetry.NewScopedAPI("parcoursup", tel),
		Progress: bar.Update,
	})
}
