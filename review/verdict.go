package review

import (
	"fmt"
	"strings"
)

// Verdict is the reviewer's judgement stored in a verdict column.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailure Verdict = "failure"
	VerdictEmpty   Verdict = ""
)

// Verdicts lists the allowed verdicts in the order the form offers them.
var Verdicts = []Verdict{VerdictSuccess, VerdictFailure, VerdictEmpty}

// Label returns the text shown for the verdict in selectors.
func (v Verdict) Label() string {
	if v == VerdictEmpty {
		return "empty"
	}
	return string(v)
}

// ParseVerdict accepts the canonical verdicts, "empty", and the Korean labels
// used by older review sheets.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(NormalizeText(s)) {
	case "success", "성공":
		return VerdictSuccess, nil
	case "failure", "실패":
		return VerdictFailure, nil
	case "", "empty":
		return VerdictEmpty, nil
	}
	return VerdictEmpty, fmt.Errorf("unknown verdict %q", s)
}
