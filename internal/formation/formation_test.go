package formation

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	return parsed
}

func TestAbsoluteURL(t *testing.T) {
	base := mustParse(t, "https://dossierappel.parcoursup.fr/Candidat/")

	testCases := []struct {
		link     string
		expected string
	}{
		{
			link:     "afficherFicheFormation?g_ta_cod=1234&typeBac=0",
			expected: "https://dossierappel.parcoursup.fr/Candidat/afficherFicheFormation?g_ta_cod=1234&typeBac=0",
		},
		{
			link:     "https://dossierappel.parcoursup.fr/Candidat/afficherFicheFormation?g_ta_cod=1234&typeBac=0",
			expected: "https://dossierappel.parcoursup.fr/Candidat/afficherFicheFormation?g_ta_cod=1234&typeBac=0",
		},
		{
			link:     "  carte?g_ta_cod=9 ",
			expected: "https://dossierappel.parcoursup.fr/Candidat/carte?g_ta_cod=9",
		},
	}

	for _, test := range testCases {
		resolved, err := AbsoluteURL(base, test.link)
		require.NoError(t, err)
		require.Equal(t, test.expected, resolved)

		again, err := AbsoluteURL(base, resolved)
		require.NoError(t, err)
		require.Equal(t, resolved, again, "resolving twice must not prefix the base twice")
	}

	_, err := AbsoluteURL(base, "")
	require.ErrorIs(t, err, ErrNoLink)
}

func TestDedupe(t *testing.T) {
	formations := []Formation{
		{School: "Lycée A", Program: "BTS", Link: "fiche?g_ta_cod=1"},
		{School: "Lycée B", Program: "CPGE", Link: "fiche?g_ta_cod=2"},
		{School: "Lycée A", Program: "BTS", Link: "fiche?g_ta_cod=1"},
		{School: "Lycée C", City: "Lyon", Program: "DUT"},
		{School: "Lycée C", City: "Lyon", Program: "DUT"},
	}

	deduped := Dedupe(formations)
	require.Equal(t, []Formation{formations[0], formations[1], formations[3]}, deduped)
}
