package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vvka-141/pgload/internal/config"
)

// collectFiles expands the positional arguments into a flat, sorted list of
// input files. A file argument is taken as-is; a directory argument
// contributes its regular files (non-recursive). Which files actually get
// imported is decided later by resolution, so no extension filter here.
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && entry.Name() != config.ConfigFileName {
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// locateConfig loads the project config. When configFlag is set it must load;
// otherwise the working directory is tried first, then each directory
// argument, and the first pgload.yaml found wins.
func locateConfig(configFlag string, args []string) (*config.ProjectConfig, error) {
	if configFlag != "" {
		cfg, err := config.Load(configFlag)
		if err != nil {
			return nil, fmt.Errorf("cannot load %s: %w", configFlag, err)
		}
		return cfg, nil
	}

	candidates := []string{"."}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			candidates = append(candidates, arg)
		}
	}

	for _, dir := range candidates {
		cfg, err := config.Load(dir)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("cannot load %s: %w", filepath.Join(dir, config.ConfigFileName), err)
		}
	}

	return nil, fmt.Errorf("no %s found; provide one with --config", config.ConfigFileName)
}
