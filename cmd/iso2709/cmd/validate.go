package cmd

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ssargent/iso2709/pkg/iso2709"
)

// errInvalidRecords is returned when validate finds malformed records.
var errInvalidRecords = errors.New("invalid records found")

func newValidateCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate [record-file...]",
		Short: "Check that every record in a file is well formed",
		Long: `Validate the structure of every record: label, directory, field
terminators, indicators and subfields. A record that is framed correctly but
malformed inside is reported and validation continues with the next one; a
broken record length stops validation of that file.

Reads stdin when no file is given. Exits non-zero if any record is invalid.

Example:
  iso2709 validate records.mrc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.cfg.CharacterSet()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			var valid, invalid int
			var size int64
			for _, path := range args {
				in, err := openInput(cmd, path)
				if err != nil {
					return err
				}

				var offset int64
				s := bufio.NewScanner(in)
				s.Buffer(make([]byte, 0, 4096), 2*iso2709.MaxRecordLength)
				s.Split(func(data []byte, atEOF bool) (int, []byte, error) {
					advance, token, err := iso2709.ScanRecords(data, atEOF)
					if token != nil {
						offset += int64(advance - len(token))
					} else {
						offset += int64(advance)
					}
					return advance, token, err
				})
				for s.Scan() {
					token := s.Bytes()
					if _, err := iso2709.ParseRecord(token, iso2709.WithDecodeCharset(enc)); err != nil {
						invalid++
						fmt.Fprintf(cmd.OutOrStdout(), "%s: offset %d: %v\n", path, offset, err)
					} else {
						valid++
					}
					offset += int64(len(token))
					size += int64(len(token))
				}
				if err := s.Err(); err != nil {
					invalid++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: offset %d: %v\n", path, offset, err)
				}
				in.Close()
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "%d valid, %d invalid (%s checked)\n", valid, invalid, humanize.Bytes(uint64(size)))
			}
			if invalid > 0 {
				return fmt.Errorf("%w: %d", errInvalidRecords, invalid)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print invalid records")
	return cmd
}
