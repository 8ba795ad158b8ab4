package review

import (
	"encoding/json"
	"time"
)

// ColumnKind is the cell type of a column, resolved once when a dataset is loaded.
type ColumnKind int

const (
	// KindText stores cells as strings.
	KindText ColumnKind = iota
	// KindBool stores TRUE/FALSE style cells.
	KindBool
	// KindInt stores whole numbers.
	KindInt
	// KindFloat stores real numbers.
	KindFloat
)

func (k ColumnKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Role names a column the review desk understands, independent of the header
// text used by a particular spreadsheet.
type Role string

const (
	RoleNo            Role = "no"
	RoleAssignee      Role = "assignee"
	RoleFileName      Role = "FileName"
	RoleGroundTruth   Role = "GroundTruth"
	RolePredict       Role = "Predict"
	RoleMatch         Role = "MATCH"
	RoleScore         Role = "Score"
	RoleItemName      Role = "ItemName"
	RoleLocation      Role = "Location"
	RoleDesc          Role = "Desc"
	RoleReason        Role = "Reason"
	RoleGTVerdict     Role = "gt_verdict"
	RoleReasonVerdict Role = "reason_verdict"
)

// RequiredRoles must be present in every loaded dataset.
var RequiredRoles = []Role{RoleAssignee, RoleFileName, RoleGTVerdict, RoleReasonVerdict}

// ReadOnlyRoles are shown to the reviewer but never edited.
var ReadOnlyRoles = []Role{
	RoleNo, RoleAssignee, RoleFileName, RoleGroundTruth, RolePredict,
	RoleMatch, RoleScore, RoleItemName, RoleLocation, RoleDesc,
}

// AllAssignees selects every row when passed to Session.Filter.
const AllAssignees = "all"

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	ImageDir          string           `json:"imageDir"`
	LastFile          string           `json:"lastFile"`
	Sheet             string           `json:"sheet"`
	OutputDir         string           `json:"outputDir"`
	OutputPrefix      string           `json:"outputPrefix"`
	EditableColumns   []string         `json:"editableColumns"`
	ImageExtensions   []string         `json:"imageExtensions"`
	ImageCacheSeconds int              `json:"imageCacheSeconds"`
	Columns           ColumnCandidates `json:"columns"`
	LogLevel          string           `json:"logLevel"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.OutputPrefix == "" {
		c.OutputPrefix = "reviewed_"
	}
	if len(c.EditableColumns) == 0 {
		c.EditableColumns = []string{string(RoleGTVerdict), string(RoleReasonVerdict)}
	}
	if len(c.ImageExtensions) == 0 {
		c.ImageExtensions = append([]string(nil), DefaultImageExtensions...)
	}
	if c.ImageCacheSeconds == 0 {
		c.ImageCacheSeconds = 60
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Columns = c.Columns.withDefaults()
}

// ImageCacheTTL returns how long resolved image paths are remembered.
// A negative setting disables the cache.
func (c Config) ImageCacheTTL() time.Duration {
	if c.ImageCacheSeconds < 0 {
		return 0
	}
	return time.Duration(c.ImageCacheSeconds) * time.Second
}
