package review

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveOutcome describes what a save did to the overlay.
type SaveOutcome int

const (
	// SaveNoChanges means the edits matched the loaded row.
	SaveNoChanges SaveOutcome = iota
	// SaveRecorded means the row was added to or updated in the overlay.
	SaveRecorded
	// SaveReverted means the edits restored the loaded values and the
	// row's earlier edit was dropped from the overlay.
	SaveReverted
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveRecorded:
		return "recorded"
	case SaveReverted:
		return "reverted"
	default:
		return "no changes"
	}
}

// SaveResult reports the effect of Session.Save.
type SaveResult struct {
	Outcome  SaveOutcome
	ID       RowID
	Changed  []string
	Modified int
}

// Session is one reviewer's working state: the loaded dataset, the assignee
// view with its cursor, the image directory and the overlay of edits.
// A Session is not safe for concurrent use.
type Session struct {
	id     string
	cfg    Config
	logger *zap.Logger

	data     *Dataset
	path     string
	editable []int
	overlay  *Overlay

	assignee string
	view     []RowID
	cursor   Cursor

	images *ImageResolver
}

// NewSession returns an empty session. A nil logger discards log output.
func NewSession(cfg Config, logger *zap.Logger) *Session {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		cfg:      cfg,
		logger:   logger.With(zap.String("session", id)),
		overlay:  NewOverlay(),
		assignee: AllAssignees,
	}
}

// ID returns the session identifier used in log entries.
func (s *Session) ID() string { return s.id }

// Config returns a copy of the session configuration.
func (s *Session) Config() Config { return s.cfg.Clone() }

// Load reads the spreadsheet at path and replaces the dataset, discarding
// all edits. On failure the previous state is kept.
func (s *Session) Load(path string) error {
	ds, err := ReadDataset(path, s.loadOptions())
	if err != nil {
		s.logger.Warn("load failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return s.install(ds, path)
}

// LoadReader is Load for data that is not on disk; name supplies the format
// and the source name used for the export file.
func (s *Session) LoadReader(r io.Reader, name string) error {
	ds, err := ReadDatasetFrom(r, name, s.loadOptions())
	if err != nil {
		s.logger.Warn("load failed", zap.String("name", name), zap.Error(err))
		return err
	}
	return s.install(ds, name)
}

func (s *Session) loadOptions() LoadOptions {
	return LoadOptions{Sheet: s.cfg.Sheet, Columns: s.cfg.Columns}
}

func (s *Session) install(ds *Dataset, path string) error {
	editable := make([]int, 0, len(s.cfg.EditableColumns))
	for _, name := range s.cfg.EditableColumns {
		idx, ok := ds.ColumnIndex(name)
		if !ok {
			err := &LoadError{Path: path, Err: fmt.Errorf("editable column %q not found", name)}
			s.logger.Warn("load failed", zap.String("path", path), zap.Error(err))
			return err
		}
		editable = append(editable, idx)
	}
	s.data = ds
	s.path = path
	s.editable = editable
	s.overlay = NewOverlay()
	s.applyFilter(AllAssignees)
	s.logger.Info("dataset loaded",
		zap.String("source", ds.Source()),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.columns)))
	return nil
}

// Loaded reports whether a dataset is present.
func (s *Session) Loaded() bool { return s.data != nil }

// Dataset returns the loaded dataset, or nil.
func (s *Session) Dataset() *Dataset { return s.data }

// SourcePath returns the path or name the dataset was loaded from.
func (s *Session) SourcePath() string { return s.path }

// SetImageDirectory points image lookups at dir. An invalid directory returns
// a *DirectoryNotFoundError and keeps the previous one.
func (s *Session) SetImageDirectory(dir string) error {
	r, err := NewImageResolver(dir, s.cfg.ImageExtensions, s.cfg.ImageCacheTTL())
	if err != nil {
		s.logger.Warn("image directory rejected", zap.String("dir", dir), zap.Error(err))
		return err
	}
	s.images = r
	s.cfg.ImageDir = r.Dir()
	s.logger.Info("image directory set", zap.String("dir", r.Dir()))
	return nil
}

// ImageDirectory returns the active image directory or "".
func (s *Session) ImageDirectory() string {
	if s.images == nil {
		return ""
	}
	return s.images.Dir()
}

// ResolveImage finds the image file of rec.
func (s *Session) ResolveImage(rec Record) (string, error) {
	name := rec.Text(string(RoleFileName))
	if s.images == nil {
		return "", &ImageNotFoundError{Name: name}
	}
	p, err := s.images.Resolve(name)
	if err != nil {
		s.logger.Debug("image not found", zap.String("name", name), zap.Int("row", int(rec.ID)))
		return "", err
	}
	return p, nil
}

// Assignees returns AllAssignees followed by the sorted distinct assignees.
func (s *Session) Assignees() []string {
	if s.data == nil {
		return nil
	}
	col := s.data.roles[RoleAssignee]
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, row := range s.data.rows {
		name := NormalizeText(row[col].String())
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{AllAssignees}, names...)
}

// Filter restricts the view to rows of one assignee, or every row for
// AllAssignees, and rewinds the cursor. It returns the view size.
func (s *Session) Filter(assignee string) (int, error) {
	if s.data == nil {
		return 0, ErrNoDataset
	}
	s.applyFilter(assignee)
	s.logger.Info("filter applied", zap.String("assignee", s.assignee), zap.Int("records", len(s.view)))
	return len(s.view), nil
}

func (s *Session) applyFilter(assignee string) {
	s.assignee = assignee
	s.view = s.view[:0]
	if assignee == AllAssignees {
		for i := range s.data.rows {
			s.view = append(s.view, RowID(i))
		}
	} else {
		want := NormalizeText(assignee)
		col := s.data.roles[RoleAssignee]
		for i, row := range s.data.rows {
			if NormalizeText(row[col].String()) == want {
				s.view = append(s.view, RowID(i))
			}
		}
	}
	s.cursor = NewCursor(len(s.view))
}

// ActiveAssignee returns the assignee of the current view.
func (s *Session) ActiveAssignee() string { return s.assignee }

// View returns the row identities of the current view in order.
func (s *Session) View() []RowID {
	return append([]RowID(nil), s.view...)
}

// Total returns the number of records in the current view.
func (s *Session) Total() int { return s.cursor.Len() }

// Position returns the cursor index within the view.
func (s *Session) Position() int { return s.cursor.Position() }

// Done reports whether every record of the view has been passed.
func (s *Session) Done() bool { return s.cursor.Done() }

// Next moves to the following record; at the end of the view it is a no-op.
func (s *Session) Next() bool { return s.cursor.Next() }

// Previous moves to the preceding record; at the first record it is a no-op.
func (s *Session) Previous() bool { return s.cursor.Previous() }

// Seek jumps to index i of the view, clamped to the valid range.
func (s *Session) Seek(i int) { s.cursor.Seek(i) }

// Progress returns how many records of the view have been passed and the view size.
func (s *Session) Progress() (int, int) {
	return s.cursor.Position(), s.cursor.Len()
}

// Current returns the record under the cursor with any saved edits applied.
// It returns false when the view is empty or complete.
func (s *Session) Current() (Record, bool) {
	if s.data == nil || s.cursor.Done() {
		return Record{}, false
	}
	return s.effective(s.view[s.cursor.Position()])
}

func (s *Session) effective(id RowID) (Record, bool) {
	if rec, ok := s.overlay.Get(id); ok {
		return rec, true
	}
	return s.data.Record(id)
}

// EditableColumns returns the headers of the columns a reviewer may edit.
func (s *Session) EditableColumns() []string {
	if s.data == nil {
		return append([]string(nil), s.cfg.EditableColumns...)
	}
	out := make([]string, len(s.editable))
	for i, idx := range s.editable {
		out[i] = s.data.columns[idx].Name
	}
	return out
}

// Save applies edits to the current record. Keys are role names or headers
// of editable columns; values are the text entered by the reviewer.
func (s *Session) Save(edits map[string]string) (SaveResult, error) {
	if s.data == nil {
		return SaveResult{}, ErrNoDataset
	}
	if s.cursor.Done() {
		return SaveResult{}, ErrNoCurrentRecord
	}
	return s.SaveRecord(s.view[s.cursor.Position()], edits)
}

// SaveRecord applies edits to the row with the given identity, on top of any
// earlier edits of that row. Edited values are coerced to the column kind;
// when any edit fails to coerce nothing is stored. An edit equal to the loaded
// value keeps the loaded cell as it was, and a row that ends up equal to the
// loaded row leaves no overlay entry behind. Changed lists every editable
// column that now differs from the loaded row.
func (s *Session) SaveRecord(id RowID, edits map[string]string) (SaveResult, error) {
	if s.data == nil {
		return SaveResult{}, ErrNoDataset
	}
	original, ok := s.data.Record(id)
	if !ok {
		return SaveResult{}, fmt.Errorf("row %d: %w", id, ErrNoCurrentRecord)
	}
	updated, _ := s.effective(id)

	names := make([]string, 0, len(edits))
	for name := range edits {
		names = append(names, name)
	}
	sort.Strings(names)
	claimed := make(map[int]string, len(names))
	for _, name := range names {
		col, ok := s.data.ColumnIndex(name)
		if !ok || !s.isEditable(col) {
			return SaveResult{}, fmt.Errorf("%q: %w", name, ErrNotEditable)
		}
		if prev, dup := claimed[col]; dup {
			return SaveResult{}, fmt.Errorf("%q and %q name the same column: %w", prev, name, ErrConflictingEdits)
		}
		claimed[col] = name

		raw := edits[name]
		column := s.data.columns[col]
		value, err := s.coerce(col, raw)
		if err != nil {
			cerr := &CoercionError{Column: column.Name, Value: raw, Kind: column.Kind, Err: err}
			s.logger.Warn("edit rejected", zap.Int("row", int(id)), zap.Error(cerr))
			return SaveResult{}, cerr
		}
		if s.unchanged(col, original.values[col], value, raw) {
			value = original.values[col]
		}
		updated.values[col] = value
	}

	var changed []string
	for _, col := range s.editable {
		if !updated.values[col].Equal(original.values[col]) {
			changed = append(changed, s.data.columns[col].Name)
		}
	}
	sort.Strings(changed)

	res := SaveResult{ID: id, Changed: changed}
	switch {
	case len(changed) > 0:
		s.overlay.Upsert(updated)
		res.Outcome = SaveRecorded
	case s.overlay.Remove(id):
		res.Outcome = SaveReverted
	default:
		res.Outcome = SaveNoChanges
	}
	res.Modified = s.overlay.Len()
	s.logger.Info("record saved",
		zap.Int("row", int(id)),
		zap.Stringer("outcome", res.Outcome),
		zap.Strings("changed", changed),
		zap.Int("modified", res.Modified))
	return res, nil
}

func (s *Session) isEditable(col int) bool {
	for _, idx := range s.editable {
		if idx == col {
			return true
		}
	}
	return false
}

// unchanged compares verdicts by meaning, so a sheet that stores Korean
// labels is not modified by re-saving the same verdict.
func (s *Session) unchanged(col int, stored, edited Value, raw string) bool {
	if s.data.isVerdict(col) {
		v, err := ParseVerdict(stored.String())
		return err == nil && string(v) == edited.Text
	}
	return sameAsStored(stored, edited, raw)
}

func (s *Session) coerce(col int, raw string) (Value, error) {
	if s.data.isVerdict(col) {
		v, err := ParseVerdict(raw)
		if err != nil {
			return Value{}, err
		}
		return TextValue(string(v)), nil
	}
	return coerceEdit(raw, s.data.columns[col].Kind)
}

// ModifiedCount returns the number of rows in the overlay.
func (s *Session) ModifiedCount() int { return s.overlay.Len() }

// Modified returns the edited rows in first-edit order.
func (s *Session) Modified() []Record { return s.overlay.Records() }

// OutputPath returns where Export writes: the configured output directory,
// or the source file's directory, joined with prefix + source file name.
func (s *Session) OutputPath() string {
	name := OutputName(s.cfg.OutputPrefix, s.path)
	dir := s.cfg.OutputDir
	if dir == "" && s.path != "" {
		dir = filepath.Dir(s.path)
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// Export writes the modified rows to OutputPath and returns that path.
func (s *Session) Export() (string, error) {
	path := s.OutputPath()
	if _, err := s.ExportTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// ExportTo writes the modified rows to path and returns how many were written.
// With no modified rows it writes nothing and returns ErrNothingToExport.
func (s *Session) ExportTo(path string) (int, error) {
	if s.data == nil {
		return 0, ErrNoDataset
	}
	records := s.overlay.Records()
	if len(records) == 0 {
		s.logger.Warn("export skipped", zap.Error(ErrNothingToExport))
		return 0, ErrNothingToExport
	}
	if err := WriteRecords(path, s.data.columns, records); err != nil {
		s.logger.Error("export failed", zap.String("path", path), zap.Error(err))
		return 0, fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}
	s.logger.Info("export written", zap.String("path", path), zap.Int("rows", len(records)))
	return len(records), nil
}
