package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"yashubustudio/reviewdesk/review"
)

// editBatch is the YAML document accepted by apply.
//
//	edits:
//	  - row: 3
//	    values: {gt_verdict: failure}
//	  - file: img7
//	    values: {reason_verdict: success}
type editBatch struct {
	Edits []editEntry `yaml:"edits"`
}

// editEntry targets one row by its 1-based position in the spreadsheet
// or by its FileName.
type editEntry struct {
	Row    int               `yaml:"row"`
	File   string            `yaml:"file"`
	Values map[string]string `yaml:"values"`
}

func loadEditBatch(path string) (editBatch, error) {
	var batch editBatch
	data, err := os.ReadFile(path)
	if err != nil {
		return batch, fmt.Errorf("read edits: %w", err)
	}
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return batch, fmt.Errorf("decode edits: %w", err)
	}
	for i, e := range batch.Edits {
		if (e.Row == 0) == (e.File == "") {
			return batch, fmt.Errorf("edit %d: set exactly one of row or file", i+1)
		}
		if len(e.Values) == 0 {
			return batch, fmt.Errorf("edit %d: no values", i+1)
		}
	}
	return batch, nil
}

func newApplyCmd(opts *options) *cobra.Command {
	var (
		editsPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "apply <spreadsheet>",
		Short: "Apply a YAML batch of edits and export the modified rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := loadEditBatch(editsPath)
			if err != nil {
				return err
			}
			s, err := opts.openSession(args[0])
			if err != nil {
				return err
			}
			if err := applyBatch(s, batch); err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = s.OutputPath()
			}
			n, err := s.ExportTo(outputPath)
			if errors.Is(err, review.ErrNothingToExport) {
				fmt.Fprintln(cmd.OutOrStdout(), "no rows changed; nothing exported")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d modified rows to %s\n", n, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&editsPath, "edits", "", "YAML file with the edits to apply")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: prefix + source name next to the source)")
	_ = cmd.MarkFlagRequired("edits")

	return cmd
}

// applyBatch saves every entry in order. A later entry for the same row
// replaces the earlier one.
func applyBatch(s *review.Session, batch editBatch) error {
	for i, e := range batch.Edits {
		id, err := resolveTarget(s.Dataset(), e)
		if err != nil {
			return fmt.Errorf("edit %d: %w", i+1, err)
		}
		if _, err := s.SaveRecord(id, e.Values); err != nil {
			return fmt.Errorf("edit %d: %w", i+1, err)
		}
	}
	return nil
}

func resolveTarget(ds *review.Dataset, e editEntry) (review.RowID, error) {
	if e.Row != 0 {
		id := review.RowID(e.Row - 1)
		if _, ok := ds.Record(id); !ok {
			return 0, fmt.Errorf("row %d out of range: %d rows loaded", e.Row, ds.Len())
		}
		return id, nil
	}
	for i := 0; i < ds.Len(); i++ {
		rec, _ := ds.Record(review.RowID(i))
		if rec.Text(string(review.RoleFileName)) == e.File {
			return rec.ID, nil
		}
	}
	return 0, fmt.Errorf("no row with file name %q", e.File)
}
