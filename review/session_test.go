package review

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSessionLoadResetsState(t *testing.T) {
	s := newLoadedSession(t, Config{})

	assert.True(t, s.Loaded())
	assert.Equal(t, 4, s.Total())
	assert.Equal(t, 0, s.Position())
	assert.Equal(t, 0, s.ModifiedCount())
	assert.Equal(t, AllAssignees, s.ActiveAssignee())
	assert.Equal(t, []string{AllAssignees, "kim", "lee", "park"}, s.Assignees())
	assert.Equal(t, []string{"gt_verdict", "reason_verdict"}, s.EditableColumns())

	_, err := s.Save(map[string]string{"gt_verdict": "failure"})
	require.NoError(t, err)
	require.Equal(t, 1, s.ModifiedCount())

	require.NoError(t, s.Load(writeSampleCSV(t)))
	assert.Equal(t, 0, s.ModifiedCount(), "loading discards earlier edits")
}

func TestSessionFailedLoadKeepsPreviousState(t *testing.T) {
	s := newLoadedSession(t, Config{})
	s.Next()
	_, err := s.Save(map[string]string{"gt_verdict": "success"})
	require.NoError(t, err)

	bad := writeFile(t, t.TempDir(), "bad.csv", "assignee,FileName\nkim,img1\n")
	err = s.Load(bad)
	var le *LoadError
	require.ErrorAs(t, err, &le)

	assert.Equal(t, 4, s.Dataset().Len())
	assert.Equal(t, 1, s.Position())
	assert.Equal(t, 1, s.ModifiedCount())
}

func TestSessionUnknownEditableColumnFailsLoad(t *testing.T) {
	s := NewSession(Config{EditableColumns: []string{"gt_verdict", "Comment"}}, nil)
	err := s.Load(writeSampleCSV(t))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), `"Comment"`)
	assert.False(t, s.Loaded())
}

func TestSessionOperationsBeforeLoad(t *testing.T) {
	s := NewSession(Config{}, nil)

	_, err := s.Filter("kim")
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = s.Save(map[string]string{"gt_verdict": "success"})
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = s.ExportTo(filepath.Join(t.TempDir(), "out.xlsx"))
	assert.ErrorIs(t, err, ErrNoDataset)

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Nil(t, s.Assignees())
}

func TestSessionFilter(t *testing.T) {
	tests := []struct {
		name     string
		assignee string
		want     []RowID
	}{
		{name: "all", assignee: AllAssignees, want: []RowID{0, 1, 2, 3}},
		{name: "kim", assignee: "kim", want: []RowID{0, 2}},
		{name: "padded name", assignee: " lee ", want: []RowID{1}},
		{name: "unknown", assignee: "choi", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newLoadedSession(t, Config{})
			s.Seek(2)

			n, err := s.Filter(tt.assignee)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, len(tt.want), s.Total())
			assert.Equal(t, 0, s.Position())
			if tt.want == nil {
				assert.Empty(t, s.View())
			} else {
				assert.Equal(t, tt.want, s.View())
			}
			for _, id := range s.View() {
				rec, ok := s.Dataset().Record(id)
				require.True(t, ok)
				if tt.assignee != AllAssignees {
					assert.Equal(t, NormalizeText(tt.assignee), rec.Text("assignee"))
				}
			}
		})
	}
}

func TestSessionNavigation(t *testing.T) {
	s := newLoadedSession(t, Config{})
	_, err := s.Filter("kim")
	require.NoError(t, err)

	assert.False(t, s.Previous(), "previous at the first record is a no-op")
	rec, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, RowID(0), rec.ID)

	require.True(t, s.Next())
	rec, ok = s.Current()
	require.True(t, ok)
	assert.Equal(t, RowID(2), rec.ID)

	require.True(t, s.Next())
	assert.True(t, s.Done())
	_, ok = s.Current()
	assert.False(t, ok)
	assert.False(t, s.Next(), "next at the end is a no-op")

	done, total := s.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)

	_, err = s.Save(map[string]string{"gt_verdict": "success"})
	assert.ErrorIs(t, err, ErrNoCurrentRecord)

	require.True(t, s.Previous())
	rec, ok = s.Current()
	require.True(t, ok)
	assert.Equal(t, RowID(2), rec.ID)

	s.Seek(-3)
	assert.Equal(t, 0, s.Position())
	s.Seek(10)
	assert.Equal(t, 2, s.Position())
}

func TestSessionSave(t *testing.T) {
	t.Run("identical values record nothing", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		res, err := s.Save(map[string]string{"gt_verdict": "success", "reason_verdict": ""})
		require.NoError(t, err)
		assert.Equal(t, SaveNoChanges, res.Outcome)
		assert.Empty(t, res.Changed)
		assert.Equal(t, 0, s.ModifiedCount())
	})

	t.Run("empty label matches a blank cell", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		res, err := s.Save(map[string]string{"reason_verdict": "empty"})
		require.NoError(t, err)
		assert.Equal(t, SaveNoChanges, res.Outcome)
	})

	t.Run("change is recorded and shown", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		res, err := s.Save(map[string]string{"gt_verdict": "failure", "reason_verdict": "success"})
		require.NoError(t, err)
		assert.Equal(t, SaveRecorded, res.Outcome)
		assert.Equal(t, []string{"gt_verdict", "reason_verdict"}, res.Changed)
		assert.Equal(t, 1, res.Modified)

		rec, ok := s.Current()
		require.True(t, ok)
		assert.True(t, rec.Modified)
		assert.Equal(t, "failure", rec.Text("gt_verdict"))
		assert.Equal(t, "success", rec.Text("reason_verdict"))

		orig, _ := s.Dataset().Record(0)
		assert.Equal(t, "success", orig.Text("gt_verdict"), "loaded rows are never mutated")
	})

	t.Run("second save of a row replaces the first", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Save(map[string]string{"reason_verdict": "failure"})
		require.NoError(t, err)
		_, err = s.Save(map[string]string{"reason_verdict": "success"})
		require.NoError(t, err)

		require.Equal(t, 1, s.ModifiedCount())
		assert.Equal(t, "success", s.Modified()[0].Text("reason_verdict"))
	})

	t.Run("restoring loaded values drops the edit", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Save(map[string]string{"gt_verdict": "failure"})
		require.NoError(t, err)
		res, err := s.Save(map[string]string{"gt_verdict": "success"})
		require.NoError(t, err)
		assert.Equal(t, SaveReverted, res.Outcome)
		assert.Equal(t, 0, s.ModifiedCount())

		rec, _ := s.Current()
		assert.False(t, rec.Modified)
	})

	t.Run("later saves keep earlier edits of the row", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Save(map[string]string{"reason_verdict": "failure"})
		require.NoError(t, err)
		res, err := s.Save(map[string]string{"gt_verdict": "failure"})
		require.NoError(t, err)
		assert.Equal(t, SaveRecorded, res.Outcome)
		assert.Equal(t, []string{"gt_verdict", "reason_verdict"}, res.Changed)

		rec := s.Modified()[0]
		assert.Equal(t, "failure", rec.Text("gt_verdict"))
		assert.Equal(t, "failure", rec.Text("reason_verdict"))
	})

	t.Run("restating a loaded value keeps other edits", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Save(map[string]string{"reason_verdict": "failure"})
		require.NoError(t, err)
		res, err := s.Save(map[string]string{"gt_verdict": "success"})
		require.NoError(t, err)
		assert.Equal(t, SaveRecorded, res.Outcome)
		assert.Equal(t, []string{"reason_verdict"}, res.Changed)
		assert.Equal(t, 1, res.Modified)
		assert.Equal(t, "failure", s.Modified()[0].Text("reason_verdict"))
	})

	t.Run("invalid verdict leaves the overlay untouched", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Save(map[string]string{"gt_verdict": "failure"})
		require.NoError(t, err)

		_, err = s.Save(map[string]string{"gt_verdict": "success", "reason_verdict": "maybe"})
		var cerr *CoercionError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "reason_verdict", cerr.Column)
		assert.Equal(t, 1, s.ModifiedCount())
		assert.Equal(t, "failure", s.Modified()[0].Text("gt_verdict"))
	})

	t.Run("read-only column is rejected", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Save(map[string]string{"Score": "0.5"})
		assert.ErrorIs(t, err, ErrNotEditable)
		_, err = s.Save(map[string]string{"Nope": "x"})
		assert.ErrorIs(t, err, ErrNotEditable)
		assert.Equal(t, 0, s.ModifiedCount())
	})

	t.Run("edits follow the row across filters", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Filter("kim")
		require.NoError(t, err)
		s.Next()
		_, err = s.Save(map[string]string{"gt_verdict": "failure"})
		require.NoError(t, err)

		_, err = s.Filter(AllAssignees)
		require.NoError(t, err)
		s.Seek(2)
		rec, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, RowID(2), rec.ID)
		assert.Equal(t, "failure", rec.Text("gt_verdict"))
	})
}

func TestSessionSaveKoreanVerdicts(t *testing.T) {
	content := "assignee,FileName,gt_verdict,reason_verdict\nkim,img1,성공,실패\n"
	s := NewSession(Config{}, nil)
	require.NoError(t, s.Load(writeFile(t, t.TempDir(), "ko.csv", content)))

	res, err := s.Save(map[string]string{"gt_verdict": "success", "reason_verdict": "FAILURE"})
	require.NoError(t, err)
	assert.Equal(t, SaveNoChanges, res.Outcome)

	res, err = s.Save(map[string]string{"gt_verdict": "실패", "reason_verdict": "failure"})
	require.NoError(t, err)
	assert.Equal(t, SaveRecorded, res.Outcome)
	assert.Equal(t, []string{"gt_verdict"}, res.Changed)
	rec := s.Modified()[0]
	assert.Equal(t, "failure", rec.Text("gt_verdict"))
	assert.Equal(t, "실패", rec.Text("reason_verdict"), "untouched verdict keeps its stored label")
}

func TestSessionSaveConflictingKeys(t *testing.T) {
	content := "assignee,FileName,gt 성공/실패,reason 성공/실패\nkim,img1,성공,\n"
	s := NewSession(Config{}, nil)
	require.NoError(t, s.Load(writeFile(t, t.TempDir(), "ko.csv", content)))

	for i := 0; i < 5; i++ {
		_, err := s.Save(map[string]string{"gt_verdict": "failure", "gt 성공/실패": "success"})
		require.ErrorIs(t, err, ErrConflictingEdits)
	}
	assert.Equal(t, 0, s.ModifiedCount())
}

func TestSessionSaveTypedColumns(t *testing.T) {
	cfg := Config{EditableColumns: []string{"gt_verdict", "reason_verdict", "no", "MATCH", "Score"}}

	tests := []struct {
		name    string
		edits   map[string]string
		outcome SaveOutcome
		want    map[string]string
	}{
		{
			name:    "integer text as float",
			edits:   map[string]string{"no": "1.0"},
			outcome: SaveNoChanges,
		},
		{
			name:    "boolean token",
			edits:   map[string]string{"MATCH": "yes"},
			outcome: SaveNoChanges,
		},
		{
			name:    "boolean changed",
			edits:   map[string]string{"MATCH": "0"},
			outcome: SaveRecorded,
			want:    map[string]string{"MATCH": "FALSE"},
		},
		{
			name:    "blank number becomes zero",
			edits:   map[string]string{"Score": " "},
			outcome: SaveRecorded,
			want:    map[string]string{"Score": "0"},
		},
		{
			name:    "float truncated into integer column",
			edits:   map[string]string{"no": "7.9"},
			outcome: SaveRecorded,
			want:    map[string]string{"no": "7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newLoadedSession(t, cfg)
			res, err := s.Save(tt.edits)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			for col, want := range tt.want {
				rec, _ := s.Current()
				assert.Equal(t, want, rec.Text(col))
			}
		})
	}

	t.Run("non-number is rejected", func(t *testing.T) {
		s := newLoadedSession(t, cfg)
		_, err := s.Save(map[string]string{"Score": "high"})
		var cerr *CoercionError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, KindFloat, cerr.Kind)
	})
}

func TestSessionExport(t *testing.T) {
	t.Run("nothing modified writes nothing", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		out := filepath.Join(t.TempDir(), "out.xlsx")
		n, err := s.ExportTo(out)
		assert.ErrorIs(t, err, ErrNothingToExport)
		assert.Zero(t, n)
		_, statErr := os.Stat(out)
		assert.True(t, errors.Is(statErr, os.ErrNotExist))
	})

	t.Run("only modified rows are written", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		s.Seek(3)
		_, err := s.Save(map[string]string{"gt_verdict": "success"})
		require.NoError(t, err)
		s.Seek(1)
		_, err = s.Save(map[string]string{"gt_verdict": "failure"})
		require.NoError(t, err)

		out := filepath.Join(t.TempDir(), "out.xlsx")
		n, err := s.ExportTo(out)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		back, err := ReadDataset(out, LoadOptions{})
		require.NoError(t, err)
		require.Equal(t, 2, back.Len())
		assert.Equal(t, s.Dataset().Columns(), back.Columns())

		first, _ := back.Record(0)
		assert.Equal(t, "park", first.Text("assignee"))
		assert.Equal(t, "success", first.Text("gt_verdict"))
		second, _ := back.Record(1)
		assert.Equal(t, "lee", second.Text("assignee"))
		assert.Equal(t, "failure", second.Text("gt_verdict"))
		assert.Equal(t, "0.41", second.Text("Score"))
	})

	t.Run("default output path sits next to the source", func(t *testing.T) {
		s := newLoadedSession(t, Config{})
		_, err := s.Save(map[string]string{"reason_verdict": "success"})
		require.NoError(t, err)

		path, err := s.Export()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(filepath.Dir(s.SourcePath()), "reviewed_eval.csv"), path)
		assert.FileExists(t, path)
	})

	t.Run("configured output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports")
		s := newLoadedSession(t, Config{OutputDir: dir, OutputPrefix: "done_"})
		assert.Equal(t, filepath.Join(dir, "done_eval.csv"), s.OutputPath())
	})
}

func TestSessionImages(t *testing.T) {
	s := newLoadedSession(t, Config{})
	rec, _ := s.Current()

	_, err := s.ResolveImage(rec)
	var nf *ImageNotFoundError
	require.ErrorAs(t, err, &nf, "no directory set yet")

	var dnf *DirectoryNotFoundError
	require.ErrorAs(t, s.SetImageDirectory(filepath.Join(t.TempDir(), "missing")), &dnf)
	assert.Equal(t, "", s.ImageDirectory())

	dir := t.TempDir()
	writeFile(t, dir, "img1.jpg", "jpeg")
	require.NoError(t, s.SetImageDirectory(dir))
	assert.Equal(t, dir, s.Config().ImageDir)

	path, err := s.ResolveImage(rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "img1.jpg"), path)

	require.Error(t, s.SetImageDirectory(""))
	assert.Equal(t, dir, s.ImageDirectory(), "a rejected directory keeps the previous one")
}

func TestSessionLogsSaves(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewSession(Config{}, zap.New(core))
	require.NoError(t, s.Load(writeSampleCSV(t)))
	_, err := s.Save(map[string]string{"gt_verdict": "failure"})
	require.NoError(t, err)

	saved := logs.FilterMessage("record saved").All()
	require.Len(t, saved, 1)
	fields := saved[0].ContextMap()
	assert.Equal(t, "recorded", fields["outcome"])
	assert.Equal(t, s.ID(), fields["session"])
	assert.Equal(t, 1, logs.FilterMessage("dataset loaded").Len())
}
