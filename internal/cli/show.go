package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"yashubustudio/reviewdesk/review"
)

func newShowCmd(opts *options) *cobra.Command {
	var (
		assignee string
		index    int
		imageDir string
	)

	cmd := &cobra.Command{
		Use:   "show <spreadsheet>",
		Short: "Print one record and its resolved image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(args[0])
			if err != nil {
				return err
			}
			if _, err := s.Filter(assignee); err != nil {
				return err
			}
			if index < 1 || index > s.Total() {
				return fmt.Errorf("index %d out of range: view has %d records", index, s.Total())
			}
			s.Seek(index - 1)
			rec, _ := s.Current()

			dir := imageDir
			if dir == "" {
				dir = s.Config().ImageDir
			}
			if dir != "" {
				if err := s.SetImageDirectory(dir); err != nil {
					return err
				}
			}
			return writeRecord(cmd.OutOrStdout(), s, rec)
		},
	}

	cmd.Flags().StringVar(&assignee, "assignee", review.AllAssignees, "restrict the view to one assignee")
	cmd.Flags().IntVar(&index, "index", 1, "1-based position within the view")
	cmd.Flags().StringVar(&imageDir, "images", "", "image directory (default: imageDir from config)")

	return cmd
}

func writeRecord(w io.Writer, s *review.Session, rec review.Record) error {
	fmt.Fprintf(w, "row %d (%d/%d, assignee %s)\n", rec.ID+1, s.Position()+1, s.Total(), s.ActiveAssignee())
	values := rec.Values()
	for i, col := range rec.Columns() {
		fmt.Fprintf(w, "  %s: %s\n", col.Name, values[i].String())
	}
	switch path, err := s.ResolveImage(rec); {
	case err == nil:
		fmt.Fprintf(w, "image: %s\n", path)
	case s.ImageDirectory() == "":
		fmt.Fprintln(w, "image: no image directory set")
	default:
		fmt.Fprintf(w, "image: %v\n", err)
	}
	return nil
}
