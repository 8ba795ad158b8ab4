package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"yashubustudio/reviewdesk/review"
)

type verdictCounts map[review.Verdict]int

type assigneeSummary struct {
	Assignee string
	Rows     int
	GT       verdictCounts
	Reason   verdictCounts
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <spreadsheet>",
		Short: "Count verdicts per assignee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openSession(args[0])
			if err != nil {
				return err
			}
			rows, err := summarize(s)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), rows)
		},
	}
}

// summarize counts verdicts for every assignee view, "all" first.
// Unrecognized verdict text is counted as empty.
func summarize(s *review.Session) ([]assigneeSummary, error) {
	var out []assigneeSummary
	for _, assignee := range s.Assignees() {
		if _, err := s.Filter(assignee); err != nil {
			return nil, err
		}
		sum := assigneeSummary{Assignee: assignee, GT: verdictCounts{}, Reason: verdictCounts{}}
		for _, id := range s.View() {
			rec, ok := s.Dataset().Record(id)
			if !ok {
				continue
			}
			sum.Rows++
			sum.GT[verdictOf(rec, review.RoleGTVerdict)]++
			sum.Reason[verdictOf(rec, review.RoleReasonVerdict)]++
		}
		out = append(out, sum)
	}
	if _, err := s.Filter(review.AllAssignees); err != nil {
		return nil, err
	}
	return out, nil
}

func verdictOf(rec review.Record, role review.Role) review.Verdict {
	v, err := review.ParseVerdict(rec.Text(string(role)))
	if err != nil {
		return review.VerdictEmpty
	}
	return v
}

func writeSummary(w io.Writer, rows []assigneeSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSIGNEE\tROWS\tGT SUCCESS\tGT FAILURE\tGT EMPTY\tREASON SUCCESS\tREASON FAILURE\tREASON EMPTY")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n", r.Assignee, r.Rows,
			r.GT[review.VerdictSuccess], r.GT[review.VerdictFailure], r.GT[review.VerdictEmpty],
			r.Reason[review.VerdictSuccess], r.Reason[review.VerdictFailure], r.Reason[review.VerdictEmpty])
	}
	return tw.Flush()
}
