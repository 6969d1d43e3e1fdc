// Package main provides charlint, a validator for character definition files.
//
// Usage:
//
//	charlint [-dir characters] [file.yml ...]
//
// With explicit file arguments only those files are checked; otherwise every
// .yml/.yaml file under -dir is checked. Exits non-zero if any file is
// invalid.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/thebtf/tycoonsim/internal/character"
)

func main() {
	dir := flag.String("dir", "characters", "Directory of character files to check")
	flag.Parse()

	// Loader warnings would interleave with the verdict lines.
	zerolog.SetGlobalLevel(zerolog.Disabled)

	files := flag.Args()
	if len(files) == 0 {
		var err error
		files, err = collect(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "charlint: %v\n", err)
			os.Exit(2)
		}
		if len(files) == 0 {
			fmt.Fprintf(os.Stderr, "charlint: no character files under %s\n", *dir)
			os.Exit(2)
		}
	}

	invalid := 0
	for _, path := range files {
		c, err := character.LoadFile(path)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			invalid++
			continue
		}
		fmt.Printf("OK   %s: %s (%d decisions, max score %d)\n",
			path, c.Name, c.TotalDecisions(), c.MaxPossibleScore())
	}

	if invalid > 0 {
		fmt.Printf("%d of %d file(s) invalid\n", invalid, len(files))
		os.Exit(1)
	}
}

func collect(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yml", ".yaml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
