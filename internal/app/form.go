package app

import (
	"fmt"

	"yashubustudio/reviewdesk/review"
)

type fieldLine struct {
	Name  string
	Value string
}

// readOnlyFields lists the non-blank cells of rec shown as reference
// information, skipping the highlighted reason and the editable columns.
func readOnlyFields(rec review.Record, reasonCol string, editable []string) []fieldLine {
	skip := make(map[string]bool, len(editable)+1)
	for _, name := range editable {
		skip[name] = true
	}
	if reasonCol != "" {
		skip[reasonCol] = true
	}
	values := rec.Values()
	var out []fieldLine
	for i, col := range rec.Columns() {
		if skip[col.Name] || i >= len(values) || values[i].Null {
			continue
		}
		out = append(out, fieldLine{Name: col.Name, Value: values[i].String()})
	}
	return out
}

func verdictLabels() []string {
	labels := make([]string, len(review.Verdicts))
	for i, v := range review.Verdicts {
		labels[i] = v.Label()
	}
	return labels
}

// verdictLabel maps a stored cell to a selector label. Values that are not a
// known verdict select the empty choice.
func verdictLabel(stored string) string {
	v, err := review.ParseVerdict(stored)
	if err != nil {
		return review.VerdictEmpty.Label()
	}
	return v.Label()
}

func verdictValue(label string) string {
	v, err := review.ParseVerdict(label)
	if err != nil {
		return label
	}
	return string(v)
}

func progressText(pos, total int) string {
	current := pos + 1
	if current > total {
		current = total
	}
	return fmt.Sprintf("진행률: %d / %d", current, total)
}

func saveMessage(res review.SaveResult) string {
	switch res.Outcome {
	case review.SaveRecorded:
		return fmt.Sprintf("저장되었습니다! (총 %d개 행 수정됨)", res.Modified)
	case review.SaveReverted:
		return fmt.Sprintf("원래 값으로 되돌렸습니다. (총 %d개 행 수정됨)", res.Modified)
	default:
		return "수정사항이 없습니다."
	}
}
