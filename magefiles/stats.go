//go:build mage

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// skipDirs are never counted.
var skipDirs = map[string]bool{
	".git": true, "vendor": true, binaryDir: true, "magefiles": true, "_examples": true,
}

// goStats is the record Stats prints.
type goStats struct {
	ProdLines int            `json:"go_loc_prod"`
	TestLines int            `json:"go_loc_test"`
	Total     int            `json:"go_loc"`
	Packages  map[string]int `json:"packages"`
}

// Stats prints production and test Go line counts, plus lines per package
// directory, as one JSON line.
func Stats() error {
	st := goStats{Packages: map[string]int{}}
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		n := bytes.Count(data, []byte("\n"))
		if strings.HasSuffix(path, "_test.go") {
			st.TestLines += n
		} else {
			st.ProdLines += n
		}
		st.Packages[filepath.Dir(path)] += n
		return nil
	})
	if err != nil {
		return err
	}
	st.Total = st.ProdLines + st.TestLines

	line, err := json.Marshal(st)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}
