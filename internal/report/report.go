// Package report writes engine output for one or more documents as JSON,
// YAML or per-domain CSV tables.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ehr/ccdaextract/internal/platform/ccda"
)

// Output formats accepted by Write.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// FileNameColumn is prepended to every CSV table.
const FileNameColumn = "file_name"

// FileResult is the engine outcome for one input file.
type FileResult struct {
	FileName string             `json:"file_name" yaml:"file_name"`
	Tables   ccda.ResultSet     `json:"tables" yaml:"tables"`
	Metadata ccda.ParseMetadata `json:"metadata" yaml:"metadata"`
}

// FileNames returns the name each input path is reported under: its base
// name, or the cleaned path when another input shares that base name.
func FileNames(paths []string) []string {
	bases := make(map[string]int, len(paths))
	for _, p := range paths {
		bases[filepath.Base(p)]++
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
		if bases[names[i]] > 1 {
			names[i] = filepath.ToSlash(filepath.Clean(p))
		}
	}
	return names
}

// Write renders results to w. CSV output concatenates the eight domain
// tables, each preceded by a "# domain" line.
func Write(w io.Writer, format string, results []FileResult) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatCSV:
		for i, d := range ccda.Domains {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "# %s\n", d); err != nil {
				return err
			}
			if err := WriteDomainCSV(w, d, results); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (want json, yaml or csv)", format)
}

// WriteDomainCSV writes one domain table across all results, with the
// source file name as the first column. Rejected files contribute no rows.
func WriteDomainCSV(w io.Writer, domain string, results []FileResult) error {
	cols := ccda.DomainColumns(domain)
	if cols == nil {
		return fmt.Errorf("unknown domain %q", domain)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{FileNameColumn}, cols...)); err != nil {
		return fmt.Errorf("write %s header: %w", domain, err)
	}
	for _, res := range results {
		for _, rec := range res.Tables[domain] {
			if err := cw.Write(append([]string{res.FileName}, rec.Values()...)); err != nil {
				return fmt.Errorf("write %s row: %w", domain, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDir writes <domain>.csv for each of the eight domains plus
// metadata.json (file name to ParseMetadata) into dir, creating it if needed.
// File names must be unique.
func WriteDir(dir string, results []FileResult) error {
	meta := make(map[string]ccda.ParseMetadata, len(results))
	for _, res := range results {
		if _, dup := meta[res.FileName]; dup {
			return fmt.Errorf("duplicate file name %q", res.FileName)
		}
		meta[res.FileName] = res.Metadata
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, d := range ccda.Domains {
		if err := writeFile(filepath.Join(dir, d+".csv"), func(w io.Writer) error {
			return WriteDomainCSV(w, d, results)
		}); err != nil {
			return err
		}
	}

	return writeFile(filepath.Join(dir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
