package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jwebster45206/map-quest/pkg/script"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <game.json|game.yaml|dir>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := collectFiles(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, f := range files {
		if err := validateFile(os.Stdout, f); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d game scripts failed validation\n", failed, len(files))
		os.Exit(1)
	}

	fmt.Printf("%d game scripts are valid!\n", len(files))
}

var scriptNamePattern = regexp.MustCompile(`^[a-z0-9]+([_-][a-z0-9]+)*$`)

// isValidScriptFilename reports whether a script base name (no extension) is
// lowercase with underscore or hyphen separators. Games are addressed by file
// name in URLs.
func isValidScriptFilename(name string) bool {
	return scriptNamePattern.MatchString(name)
}

// collectFiles expands directory arguments into the script files they hold.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if !e.IsDir() && script.IsScriptFile(e.Name()) {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// validateFile loads one script and prints its issues to w. Warnings are
// printed but only errors fail the file.
func validateFile(w io.Writer, filename string) error {
	_, _ = fmt.Fprintf(w, "Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !script.IsScriptFile(baseName) {
		return fmt.Errorf("game script must have a .json, .yaml or .yml extension: %s", baseName)
	}
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidScriptFilename(nameWithoutExt) {
		return fmt.Errorf("game script filename '%s' must be lowercase (e.g., river_deltas.json, not RiverDeltas.json)", baseName)
	}

	gs, err := script.Load(filename)
	if err != nil {
		return err
	}

	issues := gs.Validate()
	for _, issue := range issues {
		_, _ = fmt.Fprintf(w, "  %s\n", issue)
	}
	if script.HasErrors(issues) {
		return fmt.Errorf("%s has validation errors", filename)
	}
	return nil
}
