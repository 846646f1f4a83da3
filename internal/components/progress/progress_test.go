package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderDone(t *testing.T) {
	line := Render(10, 10, Options{Prefix: "Villes", Suffix: "ok", Length: 10})
	require.Equal(t, "\rVilles |██████████| 100.0% ok\n", line)
	require.Equal(t, 1, strings.Count(line, "\n"))
}

func TestRenderInProgress(t *testing.T) {
	line := Render(1, 4, Options{Length: 8})
	require.Equal(t, "\r |██------| 25.0% ", line)
	require.NotContains(t, line, "\n")

	line = Render(1, 3, Options{Length: 10, Decimals: 2})
	require.Equal(t, "\r |███-------| 33.33% ", line)
}

func TestRenderDefaults(t *testing.T) {
	line := Render(0, 5, Options{})
	require.Equal(t, "\r |"+strings.Repeat("-", 100)+"| 0.0% ", line)

	line = Render(3, 3, Options{Decimals: -1, Length: 4})
	require.Equal(t, "\r |████| 100% \n", line)
}

func TestRenderEmptyTotal(t *testing.T) {
	line := Render(0, 0, Options{Length: 4})
	require.Equal(t, "\r |████| 100.0% \n", line)
}

func TestBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewBar(&out, Options{Length: 2})
	bar.Update(0, 2)
	bar.Update(1, 2)
	bar.Update(2, 2)
	require.Equal(t, "\r |--| 0.0% \r |█-| 50.0% \r |██| 100.0% \n", out.String())

	NewBar(nil, Options{}).Update(1, 1)
}

func TestRenderRoundsHalfToEven(t *testing.T) {
	// 12.5 cells rounds down to 12, 37.5 rounds up to 38
	require.Equal(t, 12, strings.Count(Render(1, 8, Options{}), filledCell))
	require.Equal(t, 38, strings.Count(Render(3, 8, Options{}), filledCell))
}
