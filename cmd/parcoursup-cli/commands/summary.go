package commands

import (
	"fmt"
	"os"
	"slices"
	"parcoursupstats/internal/formation"
	"parcoursupstats/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
}

type academySummary struct {
	Academy    string
	Formations int
	Seats      int
	Vows       int
	// Unreported counts the formations missing either seats or vows.
	Unreported int
}

// VowsPerSeat is 0 when no seat is reported.
func (s academySummary) VowsPerSeat() float64 {
	if s.Seats == 0 {
		return 0
	}
	return float64(s.Vows) / float64(s.Seats)
}

// summarize aggregates formations per académie, sorted by name. Figures the portal
// does not report are left out of the sums.
func summarize(formations []formation.Formation) []academySummary {
	index := map[string]int{}
	var out []academySummary
	for _, f := range formations {
		i, ok := index[f.Academy]
		if !ok {
			i = len(out)
			index[f.Academy] = i
			out = append(out, academySummary{Academy: f.Academy})
		}

		s := &out[i]
		s.Formations++
		if f.Figures.Seats <= 0 || f.Figures.Vows < 0 {
			s.Unreported++
			continue
		}
		s.Seats += f.Figures.Seats
		s.Vows += f.Figures.Vows
	}

	slices.SortFunc(out, func(a, b academySummary) int {
		switch {
		case a.Academy < b.Academy:
			return -1
		case a.Academy > b.Academy:
			return 1
		}
		return 0
	})
	return out
}

var summaryCmd = &cobra.Command{
	Use:   "summary <path/to/output.csv>",
	Short: "Prints the seats and vows of a scraped CSV file per académie.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Open(args[0])
		if err != nil {
			serviceutil.Fatal("failed to open csv", err)
		}
		defer file.Close()

		formations, err := formation.ReadCSV(file)
		if err != nil {
			serviceutil.Fatal("failed to read csv", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Académie", "Formations", "Places", "Voeux", "Voeux / place", "Non renseignées"})

		total := academySummary{Academy: "Total"}
		for _, s := range summarize(formations) {
			t.AppendRow(table.Row{
				s.Academy,
				s.Formations,
				s.Seats,
				s.Vows,
				fmt.Sprintf("%.2f", s.VowsPerSeat()),
				s.Unreported,
			})
			total.Formations += s.Formations
			total.Seats += s.Seats
			total.Vows += s.Vows
			total.Unreported += s.Unreported
		}
		t.AppendFooter(table.Row{
			total.Academy,
			total.Formations,
			total.Seats,
			total.Vows,
			fmt.Sprintf("%.2f", total.VowsPerSeat()),
			total.Unreported,
		})
		t.Render()
	},
}
