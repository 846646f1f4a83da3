package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalPath returns the path of the local override of a config file,
// "config/parcoursup.json5" becomes "config/parcoursup.local.json5".
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readJson5[T any](path string) (T, bool, error) {
	var out T
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(contents) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig reads a json5 configuration file on top of `defaults`.
// The following files are merged, where a higher number takes priority:
//  0. defaults
//  1. <name>.<ext>
//  2. <name>.local.<ext>
//
// Only non-zero fields of a file override what is below it. If neither file exists
// the defaults are returned along with os.ErrNotExist.
func ReadConfig[T any](name string, defaults T) (T, error) {
	out := defaults
	allNotFound := true

	for _, path := range []string{name, LocalPath(name)} {
		layer, found, err := readJson5[T](path)
		if err != nil {
			return defaults, err
		}
		if !found {
			continue
		}
		err = mergo.Merge(&out, layer, mergo.WithOverride)
		if err != nil {
			return defaults, err
		}
		slog.Debug("merged config file", "path", path)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}
