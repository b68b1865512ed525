package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
	"github.com/ssargent/iso2709/pkg/store"
)

// openRecords opens a record file with the configured charset.
func (a *app) openRecords(path string) (*store.RecordReader, error) {
	enc, err := a.cfg.CharacterSet()
	if err != nil {
		return nil, err
	}
	r, err := store.NewRecordReader(store.RecordReaderConfig{
		FilePath: path,
		Options:  []iso2709.DecodeOption{iso2709.WithDecodeCharset(enc)},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return r, nil
}

func newDecodeCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "decode <record-file>",
		Short: "Decode ISO 2709 records into YAML or JSON documents",
		Long: `Decode every record of a record file into documents.

The output is a YAML stream (one document per record) or one JSON object
per line. Decoding stops at the first malformed record.

Examples:
  iso2709 decode records.mrc
  iso2709 decode records.mrc --format json | jq .fields`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := docFormat(format, "")
			if err != nil {
				return err
			}
			r, err := a.openRecords(args[0])
			if err != nil {
				return err
			}
			it := r.Iterator()
			defer it.Close()

			out := newDocumentWriter(cmd.OutOrStdout(), format)
			count := 0
			for it.Next() {
				if err := out.Write(codec.FromParsed(it.Record())); err != nil {
					return err
				}
				count++
			}
			if err := out.Close(); err != nil {
				return err
			}
			if err := it.Err(); err != nil {
				return fmt.Errorf("after %d records: %w", count, err)
			}
			log.Debugw("records decoded", "path", args[0], "count", count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", docYAML, "Output format: yaml or json")
	return cmd
}
