package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ssargent/iso2709/pkg/iso2709"
)

func newDumpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <record-file>",
		Short: "List the label and directory of every record",
		Long: `Print the structure of each record in a record file: its offset and
size, the label fields and one line per directory entry.

Example:
  iso2709 dump records.mrc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRecords(args[0])
			if err != nil {
				return err
			}
			it := r.Iterator()
			defer it.Close()

			n := 0
			for it.Next() {
				if n > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := dumpRecord(cmd.OutOrStdout(), n, it.Offset(), it.Record()); err != nil {
					return err
				}
				n++
			}
			if err := it.Err(); err != nil {
				return fmt.Errorf("after %d records: %w", n, err)
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records found")
			}
			return nil
		},
	}
	return cmd
}

func dumpRecord(out io.Writer, n int, offset int64, rec *iso2709.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	l := rec.Label()

	fmt.Fprintf(w, "Record:\t%d at offset %d (%s)\n", n, offset, humanize.Bytes(uint64(l.RecordLength())))
	fmt.Fprintf(w, "Label:\t%q\n", l.String())
	fmt.Fprintf(w, "Status:\t%q\n", string(l.RecordStatus()))
	fmt.Fprintf(w, "Format:\t%s\n", l.RecordFormat())
	fmt.Fprintf(w, "Base address:\t%d\n", l.BaseAddress())
	if id, ok := rec.RecordID(); ok {
		fmt.Fprintf(w, "Record ID:\t%s\n", id)
	}
	fmt.Fprintln(w, "TAG\tLENGTH\tSTART\tIMPL\tKIND")
	for _, e := range rec.Directory().Entries() {
		kind := "data"
		switch {
		case e.IsContinuation():
			kind = "continuation"
		case e.IsReferenceField():
			kind = "reference"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%q\t%s\n", e.Tag, e.FieldLength, e.FieldStart, e.ImplDefinedPart, kind)
	}
	return w.Flush()
}
