package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string   `json:"base_url"`
	Timeout  int      `json:"timeout_seconds"`
	Communes []string `json:"communes"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "parcoursup.local.json5", LocalPath("parcoursup.json5"))
	require.Equal(t, filepath.Join("conf", "a.local.json5"), LocalPath(filepath.Join("conf", "a.json5")))
}

func TestReadConfigMissing(t *testing.T) {
	defaults := testConfig{BaseUrl: "https://example.org/", Timeout: 30}
	cfg, err := ReadConfig(filepath.Join(t.TempDir(), "none.json5"), defaults)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Equal(t, defaults, cfg)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "parcoursup.json5")
	writeFile(t, name, `{
		// comments are allowed
		base_url: "https://dossierappel.parcoursup.fr/Candidat/",
		communes: ["Lyon"],
	}`)
	writeFile(t, LocalPath(name), `{ timeout_seconds: 5 }`)

	cfg, err := ReadConfig(name, testConfig{Timeout: 30})
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:  "https://dossierappel.parcoursup.fr/Candidat/",
		Timeout:  5,
		Communes: []string{"Lyon"},
	}, cfg)
}

func TestReadConfigInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "broken.json5")
	writeFile(t, name, `{ base_url: `)

	_, err := ReadConfig(name, testConfig{})
	require.Error(t, err)
}
