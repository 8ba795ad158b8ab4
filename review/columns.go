package review

import (
	"fmt"
	"strings"
)

// ColumnCandidates defines possible header names for each column role.
// Matching is case-insensitive and ignores width/compatibility differences.
type ColumnCandidates struct {
	No            []string `json:"no,omitempty"`
	Assignee      []string `json:"assignee,omitempty"`
	FileName      []string `json:"fileName,omitempty"`
	GroundTruth   []string `json:"groundTruth,omitempty"`
	Predict       []string `json:"predict,omitempty"`
	Match         []string `json:"match,omitempty"`
	Score         []string `json:"score,omitempty"`
	ItemName      []string `json:"itemName,omitempty"`
	Location      []string `json:"location,omitempty"`
	Desc          []string `json:"desc,omitempty"`
	Reason        []string `json:"reason,omitempty"`
	GTVerdict     []string `json:"gtVerdict,omitempty"`
	ReasonVerdict []string `json:"reasonVerdict,omitempty"`
}

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		No:            []string{"no", "번호", "index"},
		Assignee:      []string{"assignee", "담당자", "reviewer"},
		FileName:      []string{"FileName", "file_name", "filename", "이미지명"},
		GroundTruth:   []string{"GroundTruth", "ground_truth", "gt"},
		Predict:       []string{"Predict", "prediction"},
		Match:         []string{"MATCH"},
		Score:         []string{"Score"},
		ItemName:      []string{"ItemName", "item_name"},
		Location:      []string{"Location"},
		Desc:          []string{"Desc", "description"},
		Reason:        []string{"Reason"},
		GTVerdict:     []string{"gt_verdict", "gt 성공/실패"},
		ReasonVerdict: []string{"reason_verdict", "reason 성공/실패"},
	}
}

// DefaultColumnCandidates returns the built-in header aliases.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// withDefaults fills roles left nil with the built-in aliases, allowing
// callers to override only the parts they need.
func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := defaultColumnCandidates()
	return ColumnCandidates{
		No:            pickStrings(c.No, defaults.No),
		Assignee:      pickStrings(c.Assignee, defaults.Assignee),
		FileName:      pickStrings(c.FileName, defaults.FileName),
		GroundTruth:   pickStrings(c.GroundTruth, defaults.GroundTruth),
		Predict:       pickStrings(c.Predict, defaults.Predict),
		Match:         pickStrings(c.Match, defaults.Match),
		Score:         pickStrings(c.Score, defaults.Score),
		ItemName:      pickStrings(c.ItemName, defaults.ItemName),
		Location:      pickStrings(c.Location, defaults.Location),
		Desc:          pickStrings(c.Desc, defaults.Desc),
		Reason:        pickStrings(c.Reason, defaults.Reason),
		GTVerdict:     pickStrings(c.GTVerdict, defaults.GTVerdict),
		ReasonVerdict: pickStrings(c.ReasonVerdict, defaults.ReasonVerdict),
	}
}

func (c ColumnCandidates) clone() ColumnCandidates {
	return ColumnCandidates{
		No:            cloneStrings(c.No),
		Assignee:      cloneStrings(c.Assignee),
		FileName:      cloneStrings(c.FileName),
		GroundTruth:   cloneStrings(c.GroundTruth),
		Predict:       cloneStrings(c.Predict),
		Match:         cloneStrings(c.Match),
		Score:         cloneStrings(c.Score),
		ItemName:      cloneStrings(c.ItemName),
		Location:      cloneStrings(c.Location),
		Desc:          cloneStrings(c.Desc),
		Reason:        cloneStrings(c.Reason),
		GTVerdict:     cloneStrings(c.GTVerdict),
		ReasonVerdict: cloneStrings(c.ReasonVerdict),
	}
}

func (c ColumnCandidates) byRole() map[Role][]string {
	return map[Role][]string{
		RoleNo:            c.No,
		RoleAssignee:      c.Assignee,
		RoleFileName:      c.FileName,
		RoleGroundTruth:   c.GroundTruth,
		RolePredict:       c.Predict,
		RoleMatch:         c.Match,
		RoleScore:         c.Score,
		RoleItemName:      c.ItemName,
		RoleLocation:      c.Location,
		RoleDesc:          c.Desc,
		RoleReason:        c.Reason,
		RoleGTVerdict:     c.GTVerdict,
		RoleReasonVerdict: c.ReasonVerdict,
	}
}

// resolveRoles maps every role found in header to its column index and fails
// when a required role is missing.
func resolveRoles(header []string, candidates ColumnCandidates) (map[Role]int, error) {
	roles := make(map[Role]int)
	for role, names := range candidates.withDefaults().byRole() {
		if idx := findColumn(header, names); idx >= 0 {
			roles[role] = idx
		}
	}
	var missing []string
	for _, role := range RequiredRoles {
		if _, ok := roles[role]; !ok {
			missing = append(missing, string(role))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return roles, nil
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		key := normalizeKey(col)
		for _, cand := range candidates {
			if key == normalizeKey(cand) {
				return i
			}
		}
	}
	return -1
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
