package commands

import (
	"parcoursupstats/internal/components/telemetry"
	"parcoursupstats/internal/scrapers/parcoursup"
	"parcoursupstats/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(filtersCmd)
}

var filtersCmd = &cobra.Command{
	Use:   "filters [name]...",
	Short: "Lists the communes the portal can be searched on, optionally only those matching a name.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		tel := telemetry.SlogAPI{}
		client, err := newClient(cfg, tel)
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		scraper := parcoursup.NewScraper(client, tel, parcoursup.ScraperOptions{
			Communes: args,
		})

		filters, err := scraper.Filters(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to enumerate communes", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Code", "Commune"})
		for _, f := range filters {
			t.AppendRow(table.Row{f.Code, f.Label})
		}
		t.AppendFooter(table.Row{"", len(filters)})
		t.Render()
	},
}
