package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/iso2709/pkg/codec"
	"github.com/ssargent/iso2709/pkg/iso2709"
	"github.com/ssargent/iso2709/pkg/query"
	"github.com/ssargent/iso2709/pkg/storage"
)

// archivePath is where the record archive lives inside the data directory.
func (a *app) archivePath() string {
	return filepath.Join(a.cfg.DataDir, "archive")
}

// withArchive opens the archive for the duration of fn.
func (a *app) withArchive(fn func(*storage.Archive) error) error {
	path := a.archivePath()
	archive, err := getContainer().OpenArchive(path, storage.Options{Sync: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := archive.Close(); err != nil {
			log.Errorw("closing archive", "path", path, "error", err)
		}
	}()
	return fn(archive)
}

func newArchiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store and retrieve records in the local archive",
		Long: `Manage the record archive kept in <data_dir>/archive.

Each stored record gets a time-ordered ID. Records carrying an identifier
field (001) can also be found by that identifier.`,
	}
	cmd.AddCommand(
		newArchivePutCmd(a),
		newArchiveGetCmd(a),
		newArchiveListCmd(a),
		newArchiveLookupCmd(a),
		newArchiveDeleteCmd(a),
		newArchiveSearchCmd(a),
	)
	return cmd
}

func newArchivePutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put <record-file...>",
		Short: "Store every record of the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive *storage.Archive) error {
				for _, path := range args {
					r, err := a.openRecords(path)
					if err != nil {
						return err
					}
					it := r.Iterator()
					for it.Next() {
						rec := it.Record()
						id, err := archive.Put(rec.Bytes())
						if err != nil {
							it.Close()
							return fmt.Errorf("%s: offset %d: %w", path, it.Offset(), err)
						}
						recordID, _ := rec.RecordID()
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, recordID)
					}
					err = it.Err()
					it.Close()
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
				}
				return nil
			})
		},
	}
}

func newArchiveGetCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored record",
		Long: `Print a stored record as raw ISO 2709 bytes, or as a YAML or JSON
document.

Examples:
  iso2709 archive get 2Cj4AXVb3fZ3tHy1vNNW5P8sLmW > record.mrc
  iso2709 archive get 2Cj4AXVb3fZ3tHy1vNNW5P8sLmW --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return a.withArchive(func(archive *storage.Archive) error {
				data, err := archive.Get(id)
				if err != nil {
					return err
				}
				if format == "raw" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				docFmt, err := docFormat(format, "")
				if err != nil {
					return err
				}
				enc, err := a.cfg.CharacterSet()
				if err != nil {
					return err
				}
				rec, err := iso2709.ParseRecord(data, iso2709.WithDecodeCharset(enc))
				if err != nil {
					return err
				}
				out := newDocumentWriter(cmd.OutOrStdout(), docFmt)
				if err := out.Write(codec.FromParsed(rec)); err != nil {
					return err
				}
				return out.Close()
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "raw", "Output format: raw, yaml or json")
	return cmd
}

func newArchiveListCmd(a *app) *cobra.Command {
	var (
		after string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records in id (creation time) order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := ksuid.Nil
			if after != "" {
				id, err := ksuid.Parse(after)
				if err != nil {
					return fmt.Errorf("invalid --after id %q: %w", after, err)
				}
				start = id
			}
			return a.withArchive(func(archive *storage.Archive) error {
				ids, err := archive.List(start, limit)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No records found")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tRECORD ID\tSIZE\tSTORED")
				for _, id := range ids {
					data, err := archive.Get(id)
					if err != nil {
						return err
					}
					recordID := ""
					if rec, err := iso2709.ParseRecord(data); err == nil {
						recordID, _ = rec.RecordID()
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, recordID,
						humanize.Bytes(uint64(len(data))), id.Time().UTC().Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "Only list records stored after this id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum number of records to list")
	return cmd
}

func newArchiveLookupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <record-id>",
		Short: "Find the archive id of a record by its identifier field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive *storage.Archive) error {
				id, err := archive.Lookup(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id.String())
				return nil
			})
		},
	}
}

func newArchiveDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return a.withArchive(func(archive *storage.Archive) error {
				if err := archive.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
}

func newArchiveSearchCmd(a *app) *cobra.Command {
	var (
		op    string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <field> <value>",
		Short: "Find stored records by field value",
		Long: `Find stored records whose field matches a value. The field is a tag
("001", "650") or a tag and subfield code ("245$a"). A data field without a
code matches any of its subfields.

Operators: =, !=, <, <=, >, >=, prefix, contains.

Examples:
  iso2709 archive search '245$a' 'Moby Dick'
  iso2709 archive search '650$a' Cats --op prefix
  iso2709 archive search '264$c' 2000 --op '>='`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fq := query.FieldQuery{Field: args[0], Operator: op, Value: args[1]}
			if err := fq.Validate(); err != nil {
				return err
			}
			enc, err := a.cfg.CharacterSet()
			if err != nil {
				return err
			}
			return a.withArchive(func(archive *storage.Archive) error {
				engine := query.NewScanQueryEngine(archive, nil, iso2709.WithDecodeCharset(enc))
				it, err := engine.ExecuteQuery(cmd.Context(), fq, limit)
				if err != nil {
					return err
				}
				defer it.Close()

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tRECORD ID\tMATCHED")
				n := 0
				for it.Next() {
					res := it.Result()
					recordID := ""
					if rec, err := iso2709.ParseRecord(res.Data); err == nil {
						recordID, _ = rec.RecordID()
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", res.ID, recordID, strings.Join(res.Values, "; "))
					n++
				}
				if err := w.Flush(); err != nil {
					return err
				}
				log.Debugw("search finished", "field", fq.Field, "operator", fq.Operator, "matches", n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&op, "op", query.OpEqual, "Comparison operator")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum number of matches (0 for all)")
	return cmd
}
