package formation

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"parcoursupstats/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleFormations() []Formation {
	return []Formation{
		{
			School:  "Lycée Jean Moulin",
			City:    "Lyon",
			Academy: "Lyon",
			Link:    "afficherFicheFormation?g_ta_cod=1",
			Program: "BTS - Services Management, commercial",
			Figures: Figures{
				Classes:          2,
				Seats:            120,
				SeatsPriorYear:   110,
				Vows:             1500,
				VowsPriorYear:    -1,
				ScholarshipQuota: "10 %",
			},
			Complete: true,
		},
		{
			School:  "Lycée du Parc",
			City:    "Lyon 06",
			Academy: "Lyon",
			Link:    "afficherFicheFormation?g_ta_cod=2",
			Program: "CPGE MPSI",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	tel := telemetry.NewRecorder()
	base := mustParse(t, "https://dossierappel.parcoursup.fr/Candidat/")

	var progress []int
	var out bytes.Buffer
	written, err := WriteCSV(&out, sampleFormations(), WriteOptions{
		BaseUrl: base,
		Tel:     tel,
		Progress: func(done, total int) {
			require.Equal(t, 2, total)
			progress = append(progress, done)
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, written)
	require.Equal(t, []int{1, 2}, progress)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "etablissement,ville,academie,url,formation,classes,places,places17,voeux,voeux17,boursier", lines[0])
	require.Equal(t,
		`Lycée Jean Moulin,Lyon,Lyon,https://dossierappel.parcoursup.fr/Candidat/afficherFicheFormation?g_ta_cod=1,"BTS - Services Management, commercial",2,120,110,1500,-1,10 %`,
		lines[1],
	)
	require.Equal(t,
		`Lycée du Parc,Lyon 06,Lyon,https://dossierappel.parcoursup.fr/Candidat/afficherFicheFormation?g_ta_cod=2,CPGE MPSI,0,0,0,0,0,`,
		lines[2],
	)
	require.Empty(t, tel.Reports(telemetry.ReportKindWarning, ""))
}

func TestWriteCSVSkipsUnresolvableRows(t *testing.T) {
	tel := telemetry.NewRecorder()
	formations := sampleFormations()
	formations[0].Link = ""

	var out bytes.Buffer
	written, err := WriteCSV(&out, formations, WriteOptions{
		BaseUrl: mustParse(t, "https://dossierappel.parcoursup.fr/Candidat/"),
		Tel:     tel,
	})
	require.NoError(t, err)
	require.Equal(t, 1, written)
	require.Equal(t, 2, strings.Count(out.String(), "\n"))
	require.Len(t, tel.Reports(telemetry.ReportKindWarning, report_csv_write_row), 1)
}

func TestWriteCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcoursup.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale contents that must disappear\n"), 0600))

	base := mustParse(t, "https://dossierappel.parcoursup.fr/Candidat/")
	written, err := WriteCSVFile(path, sampleFormations(), WriteOptions{
		BaseUrl: base,
		Tel:     telemetry.NewRecorder(),
	})
	require.NoError(t, err)
	require.Equal(t, 2, written)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	read, err := ReadCSV(file)
	require.NoError(t, err)

	expected := sampleFormations()
	for i := range expected {
		expected[i].Link, err = AbsoluteURL(base, expected[i].Link)
		require.NoError(t, err)
		expected[i].Complete = false
	}
	if diff := cmp.Diff(expected, read); diff != "" {
		t.Fatalf("formations read back differ (-want +got):\n%s", diff)
	}
}

func TestReadCSVBadHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b,c,d,e,f,g,h,i,j,k\n"))
	require.ErrorIs(t, err, ErrBadHeader)

	_, err = ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestWriteCSVNilBase(t *testing.T) {
	var base *url.URL
	require.PanicsWithValue(t, "base url: expected pointer to be not nil", func() {
		WriteCSV(&bytes.Buffer{}, nil, WriteOptions{BaseUrl: base, Tel: telemetry.NewRecorder()})
	})
}
