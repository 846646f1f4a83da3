package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "", expected: ""},
		{in: "  120 ", expected: "120"},
		{in: "BTS\r\n\t\tManagement   commercial", expected: "BTS Management commercial"},
		{in: "non disponible", expected: "non disponible"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CollapseWhitespace(test.in))
	}
}

func TestStripLineBreaks(t *testing.T) {
	require.Equal(t, "Lycée Jean  Moulin", StripLineBreaks("\r\n\t\tLycée Jean  Moulin\t\r\n"))
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<table><tr><td><strong>Lycée <em>Victor</em> Hugo</strong></td></tr></table>`,
	))
	require.NoError(t, err)

	require.Equal(t, "Lycée Victor Hugo", SelectionText(doc.Find("strong")))
	require.Equal(t, "", SelectionText(doc.Find("select")))
}
