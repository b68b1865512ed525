package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/store"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		output      string
		inputFormat string
		appendMode  bool
	)

	cmd := &cobra.Command{
		Use:   "encode [document-file...]",
		Short: "Encode YAML or JSON documents as ISO 2709 records",
		Long: `Encode record documents into ISO 2709 records.

Documents are read from the given files, or from stdin when none are given.
YAML input may hold several documents separated by "---"; JSON input may
hold several concatenated objects. Label characters missing from a document
are taken from the config file's label section.

Examples:
  iso2709 encode records.yaml -o records.mrc
  cat record.json | iso2709 encode --input json > record.mrc
  iso2709 --record-format 22450 encode a.yaml b.yaml -o out.mrc --append`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.cfg.Codec()
			if err != nil {
				return err
			}

			var sink func(*codec.Record) (int, error)
			if output == "" {
				out := cmd.OutOrStdout()
				sink = func(rec *codec.Record) (int, error) {
					data, err := c.Encode(rec)
					if err != nil {
						return 0, err
					}
					return out.Write(data)
				}
			} else {
				if !appendMode {
					if err := os.Truncate(output, 0); err != nil && !os.IsNotExist(err) {
						return fmt.Errorf("truncate %s: %w", output, err)
					}
				}
				w, err := store.NewRecordWriter(store.RecordWriterConfig{FilePath: output, Codec: c})
				if err != nil {
					return fmt.Errorf("open %s: %w", output, err)
				}
				defer func() {
					if err := w.Close(); err != nil {
						log.Errorw("closing record file", "path", output, "error", err)
					}
				}()
				sink = func(rec *codec.Record) (int, error) {
					start := w.Size()
					if _, err := w.Put(rec); err != nil {
						return 0, err
					}
					return int(w.Size() - start), nil
				}
			}

			if len(args) == 0 {
				args = []string{"-"}
			}
			var count, total int
			for _, path := range args {
				format, err := docFormat(inputFormat, path)
				if err != nil {
					return err
				}
				in, err := openInput(cmd, path)
				if err != nil {
					return err
				}
				err = readDocuments(in, format, func(rec *codec.Record) error {
					a.cfg.ApplyLabel(rec)
					n, err := sink(rec)
					if err != nil {
						return err
					}
					count++
					total += n
					return nil
				})
				in.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			log.Infow("records encoded", "count", count, "bytes", total)
			if output != "" {
				cmd.PrintErrf("Encoded %d records (%s) to %s\n", count, humanize.Bytes(uint64(total)), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Record file to write (default stdout)")
	cmd.Flags().StringVar(&inputFormat, "input", "", "Document format: yaml or json (default from file extension)")
	cmd.Flags().BoolVar(&appendMode, "append", false, "Append to the output file instead of replacing it")
	return cmd
}
