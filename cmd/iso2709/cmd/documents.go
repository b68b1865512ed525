package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/iso2709/pkg/codec"
)

const (
	docYAML = "yaml"
	docJSON = "json"
)

// docFormat picks the document format from an explicit flag value or the
// file extension. YAML is the default.
func docFormat(flag, path string) (string, error) {
	switch strings.ToLower(flag) {
	case docYAML, "yml":
		return docYAML, nil
	case docJSON:
		return docJSON, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported document format %q (use yaml or json)", flag)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return docJSON, nil
	}
	return docYAML, nil
}

// readDocuments decodes a stream of record documents: YAML documents
// separated by "---", or concatenated JSON objects.
func readDocuments(r io.Reader, format string, fn func(*codec.Record) error) error {
	next := yaml.NewDecoder(r).Decode
	if format == docJSON {
		next = json.NewDecoder(r).Decode
	}
	for n := 0; ; n++ {
		rec := &codec.Record{}
		if err := next(rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("document %d: %w", n, err)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
	}
}

// documentWriter writes record documents as a YAML stream or one JSON
// object per line.
type documentWriter struct {
	yaml *yaml.Encoder
	json *json.Encoder
}

func newDocumentWriter(w io.Writer, format string) *documentWriter {
	if format == docJSON {
		return &documentWriter{json: json.NewEncoder(w)}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &documentWriter{yaml: enc}
}

func (d *documentWriter) Write(v any) error {
	if d.json != nil {
		return d.json.Encode(v)
	}
	return d.yaml.Encode(v)
}

func (d *documentWriter) Close() error {
	if d.yaml != nil {
		return d.yaml.Close()
	}
	return nil
}

// openInput opens path for reading; "-" and "" read stdin.
func openInput(cmd interface{ InOrStdin() io.Reader }, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}
