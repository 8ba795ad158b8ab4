package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/reviewdesk/review"
)

type fieldEditor struct {
	column string
	value  func() string
}

type uiState struct {
	session *review.Session
	logger  *zap.Logger
	capture *logCapture

	w             fyne.Window
	fileLabel     *widget.Label
	assigneeSel   *widget.Select
	imageDirEntry *widget.Entry
	modifiedLabel *widget.Label
	status        *widget.Label
	log           *widget.Entry
	statusBind    binding.String
	logBind       binding.String

	progress     *widget.ProgressBar
	progressText *widget.Label
	headline     *widget.Label
	image        *canvas.Image
	imageNote    *widget.Label
	reason       *widget.Label
	reasonCard   *widget.Card
	fields       *fyne.Container
	editorBox    *fyne.Container
	editors      []fieldEditor

	loadBtn     *widget.Button
	filterBtn   *widget.Button
	resetBtn    *widget.Button
	exportBtn   *widget.Button
	exportAsBtn *widget.Button
	prevBtn     *widget.Button
	saveBtn     *widget.Button
	nextBtn     *widget.Button
}

func buildUI(a fyne.App, sess *review.Session, capture *logCapture, logger *zap.Logger) *uiState {
	u := &uiState{session: sess, logger: logger, capture: capture}
	u.w = a.NewWindow("이미지 평가 결과 검수 시스템")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("사이드바에서 엑셀 파일을 업로드하고 이미지 디렉토리를 설정해주세요.")
	u.logBind = binding.NewString()
	go capture.run(logDebounceInterval, func(text string) {
		fyne.Do(func() { _ = u.logBind.Set(text) })
	})

	u.fileLabel = widget.NewLabel("파일 없음")
	u.fileLabel.Truncation = fyne.TextTruncateEllipsis
	u.loadBtn = widget.NewButtonWithIcon("엑셀 파일 열기", theme.FolderOpenIcon(), func() { u.onLoadFile() })

	u.assigneeSel = widget.NewSelect(nil, nil)
	u.assigneeSel.PlaceHolder = "담당자 선택"
	u.filterBtn = widget.NewButtonWithIcon("담당자 필터 적용", theme.SearchIcon(), func() { u.onApplyFilter() })
	u.resetBtn = widget.NewButtonWithIcon("필터 초기화", theme.ViewRefreshIcon(), func() { u.onResetFilter() })

	u.imageDirEntry = widget.NewEntry()
	u.imageDirEntry.SetPlaceHolder("이미지 디렉토리 경로")
	browseBtn := widget.NewButtonWithIcon("", theme.FolderIcon(), func() { u.onBrowseImageDir() })
	setDirBtn := widget.NewButtonWithIcon("디렉토리 설정", theme.ConfirmIcon(), func() { u.onSetImageDir() })

	u.modifiedLabel = widget.NewLabel("")
	u.exportBtn = widget.NewButtonWithIcon("수정된 파일 저장", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.exportAsBtn = widget.NewButtonWithIcon("다른 이름으로 저장", theme.DocumentSaveIcon(), func() { u.onExportAs() })

	u.status = widget.NewLabelWithData(u.statusBind)
	u.status.Wrapping = fyne.TextWrapWord
	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("처리 로그")
	u.log.Disable()

	u.progress = widget.NewProgressBar()
	u.progressText = widget.NewLabel("")
	u.headline = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	u.headline.Wrapping = fyne.TextWrapWord

	u.image = canvas.NewImageFromResource(nil)
	u.image.FillMode = canvas.ImageFillContain
	u.image.SetMinSize(fyne.NewSize(480, 420))
	u.imageNote = widget.NewLabel("")
	u.imageNote.Wrapping = fyne.TextWrapWord

	u.reason = widget.NewLabel("")
	u.reason.Wrapping = fyne.TextWrapWord
	u.reasonCard = widget.NewCard("Reason (중요)", "", u.reason)
	u.fields = container.New(layout.NewFormLayout())
	u.editorBox = container.New(layout.NewFormLayout())

	u.prevBtn = widget.NewButtonWithIcon("이전", theme.NavigateBackIcon(), func() { u.onPrevious() })
	u.saveBtn = widget.NewButtonWithIcon("저장", theme.DocumentSaveIcon(), func() { u.onSave() })
	u.nextBtn = widget.NewButtonWithIcon("다음", theme.NavigateNextIcon(), func() { u.onNext() })
	u.nextBtn.IconPlacement = widget.ButtonIconTrailingText

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("설정", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.loadBtn,
		u.fileLabel,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("담당자", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.assigneeSel,
		container.NewGridWithColumns(2, u.filterBtn, u.resetBtn),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("이미지 디렉토리", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, nil, browseBtn, u.imageDirEntry),
		setDirBtn,
		widget.NewSeparator(),
		u.modifiedLabel,
		container.NewGridWithColumns(2, u.exportBtn, u.exportAsBtn),
		widget.NewSeparator(),
		u.status,
	)
	left := container.NewBorder(sidebar, nil, nil, nil, container.NewMax(u.log))

	imagePane := container.NewBorder(
		widget.NewLabelWithStyle("이미지", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.imageNote, nil, nil, u.image)
	recordPane := container.NewVScroll(container.NewVBox(
		u.reasonCard,
		widget.NewLabelWithStyle("기타 정보 (읽기 전용)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.fields,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("검수 결과 입력", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.editorBox,
		container.NewGridWithColumns(3, u.prevBtn, u.saveBtn, u.nextBtn),
	))
	body := container.NewHSplit(imagePane, recordPane)
	body.Offset = 0.5
	header := container.NewVBox(u.progress, u.progressText, u.headline)
	workArea := container.NewBorder(header, nil, nil, nil, body)

	split := container.NewHSplit(left, workArea)
	split.Offset = 0.25

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1280, 820))
	u.refresh()
	return u
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) showError(err error) {
	u.setStatus(err.Error())
	dialog.ShowError(err, u.w)
}

// refresh redraws every widget that depends on session state.
func (u *uiState) refresh() {
	loaded := u.session.Loaded()
	setEnabled(loaded, u.filterBtn, u.resetBtn, u.assigneeSel)
	setEnabled(loaded && u.session.ModifiedCount() > 0, u.exportBtn, u.exportAsBtn)
	u.modifiedLabel.SetText(fmt.Sprintf("수정된 행: %d", u.session.ModifiedCount()))
	u.showCurrent()
}

func (u *uiState) showCurrent() {
	rec, ok := u.session.Current()
	setEnabled(ok, u.saveBtn, u.nextBtn)
	setEnabled(u.session.Loaded() && u.session.Position() > 0, u.prevBtn)

	pos, total := u.session.Progress()
	u.progress.Max = float64(max(total, 1))
	u.progress.SetValue(float64(min(pos+1, total)))

	if !ok {
		u.clearRecord()
		switch {
		case !u.session.Loaded():
			u.headline.SetText("먼저 엑셀 파일을 업로드해주세요.")
		case total == 0:
			u.headline.SetText("선택한 담당자의 레코드가 없습니다.")
		default:
			u.progress.SetValue(float64(total))
			u.progressText.SetText(progressText(pos, total))
			u.headline.SetText("모든 레코드 검수가 완료되었습니다!")
		}
		return
	}

	u.progressText.SetText(progressText(pos, total))
	name := rec.Text(string(review.RoleFileName))
	title := fmt.Sprintf("이미지명: %s", name)
	if assignee := u.session.ActiveAssignee(); assignee != review.AllAssignees {
		title = fmt.Sprintf("담당자: %s / %s", assignee, title)
	}
	if rec.Modified {
		title += " (수정됨)"
	}
	u.headline.SetText(title)
	u.showImage(rec, name)

	ds := u.session.Dataset()
	reasonCol, _ := ds.RoleColumn(review.RoleReason)
	if v, ok := rec.Get(string(review.RoleReason)); ok && !v.Null && v.String() != "" {
		u.reason.SetText(v.String())
		u.reasonCard.Show()
	} else {
		u.reasonCard.Hide()
	}

	editable := u.session.EditableColumns()
	var objs []fyne.CanvasObject
	for _, f := range readOnlyFields(rec, reasonCol, editable) {
		value := widget.NewLabel(f.Value)
		value.Wrapping = fyne.TextWrapWord
		objs = append(objs, widget.NewLabelWithStyle(f.Name, fyne.TextAlignTrailing, fyne.TextStyle{Bold: true}), value)
	}
	u.fields.Objects = objs
	u.fields.Refresh()

	u.buildEditors(rec, editable)
}

func (u *uiState) showImage(rec review.Record, name string) {
	path, err := u.session.ResolveImage(rec)
	if err != nil {
		u.image.File = ""
		u.image.Resource = nil
		u.image.Refresh()
		var nf *review.ImageNotFoundError
		switch {
		case u.session.ImageDirectory() == "":
			u.imageNote.SetText("이미지 디렉토리를 설정해주세요.")
		case errors.As(err, &nf):
			u.imageNote.SetText(fmt.Sprintf("이미지를 찾을 수 없습니다: %s", name))
		default:
			u.imageNote.SetText(err.Error())
		}
		return
	}
	u.image.Resource = nil
	u.image.File = path
	u.image.Refresh()
	u.imageNote.SetText(filepath.Base(path))
}

func (u *uiState) buildEditors(rec review.Record, editable []string) {
	ds := u.session.Dataset()
	verdictCols := make(map[string]bool, 2)
	for _, role := range []review.Role{review.RoleGTVerdict, review.RoleReasonVerdict} {
		if name, ok := ds.RoleColumn(role); ok {
			verdictCols[name] = true
		}
	}

	u.editors = u.editors[:0]
	var objs []fyne.CanvasObject
	for _, col := range editable {
		current := rec.Text(col)
		var input fyne.CanvasObject
		var value func() string
		if verdictCols[col] {
			sel := widget.NewSelect(verdictLabels(), nil)
			sel.SetSelected(verdictLabel(current))
			input = sel
			value = func() string { return verdictValue(sel.Selected) }
		} else {
			entry := widget.NewEntry()
			entry.SetText(current)
			input = entry
			value = func() string { return entry.Text }
		}
		u.editors = append(u.editors, fieldEditor{column: col, value: value})
		objs = append(objs, widget.NewLabelWithStyle(col+" 수정", fyne.TextAlignTrailing, fyne.TextStyle{Bold: true}), input)
	}
	u.editorBox.Objects = objs
	u.editorBox.Refresh()
}

func (u *uiState) clearRecord() {
	u.progressText.SetText("")
	u.image.File = ""
	u.image.Resource = nil
	u.image.Refresh()
	u.imageNote.SetText("")
	u.reasonCard.Hide()
	u.fields.Objects = nil
	u.fields.Refresh()
	u.editors = nil
	u.editorBox.Objects = nil
	u.editorBox.Refresh()
}

func (u *uiState) collectEdits() map[string]string {
	edits := make(map[string]string, len(u.editors))
	for _, e := range u.editors {
		edits[e.column] = e.value()
	}
	return edits
}

func (u *uiState) onLoadFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			u.showError(err)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		uri := rc.URI()
		if uri.Scheme() == "file" {
			u.loadPath(uri.Path())
			return
		}
		if err := u.session.LoadReader(rc, uri.Name()); err != nil {
			u.showError(err)
			return
		}
		u.afterLoad(uri.Name())
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".xlsx", ".xlsm", ".csv", ".tsv"}))
	fd.Show()
}

func (u *uiState) loadPath(path string) {
	if err := u.session.Load(path); err != nil {
		u.showError(err)
		return
	}
	u.afterLoad(path)
}

func (u *uiState) afterLoad(name string) {
	u.fileLabel.SetText(filepath.Base(name))
	u.assigneeSel.Options = u.session.Assignees()
	u.assigneeSel.SetSelected(review.AllAssignees)
	u.setStatus(fmt.Sprintf("엑셀 파일 로드 완료: %d개 레코드", u.session.Total()))
	u.refresh()
}

func (u *uiState) onApplyFilter() {
	assignee := u.assigneeSel.Selected
	if assignee == "" {
		assignee = review.AllAssignees
	}
	n, err := u.session.Filter(assignee)
	if err != nil {
		u.showError(err)
		return
	}
	u.setStatus(fmt.Sprintf("담당자 '%s' 필터 적용 완료: %d개 레코드", assignee, n))
	u.refresh()
}

func (u *uiState) onResetFilter() {
	n, err := u.session.Filter(review.AllAssignees)
	if err != nil {
		u.showError(err)
		return
	}
	u.assigneeSel.SetSelected(review.AllAssignees)
	u.setStatus(fmt.Sprintf("필터를 초기화했습니다: %d개 레코드", n))
	u.refresh()
}

func (u *uiState) onBrowseImageDir() {
	fd := dialog.NewFolderOpen(func(lu fyne.ListableURI, err error) {
		if err != nil {
			u.showError(err)
			return
		}
		if lu == nil {
			return
		}
		u.imageDirEntry.SetText(lu.Path())
		u.onSetImageDir()
	}, u.w)
	fd.Show()
}

func (u *uiState) onSetImageDir() {
	dir := u.imageDirEntry.Text
	if err := u.session.SetImageDirectory(dir); err != nil {
		u.showError(fmt.Errorf("디렉토리를 찾을 수 없습니다: %s", dir))
		return
	}
	u.setStatus(fmt.Sprintf("이미지 디렉토리 설정 완료: %s", u.session.ImageDirectory()))
	u.showCurrent()
}

func (u *uiState) save() bool {
	res, err := u.session.Save(u.collectEdits())
	if err != nil {
		var cerr *review.CoercionError
		if errors.As(err, &cerr) {
			u.showError(fmt.Errorf("컬럼 '%s'의 값 '%s'를 저장할 수 없습니다: %w", cerr.Column, cerr.Value, cerr.Err))
		} else {
			u.showError(err)
		}
		return false
	}
	u.setStatus(saveMessage(res))
	return true
}

func (u *uiState) onSave() {
	if u.save() {
		u.refresh()
	}
}

// onNext saves the form before advancing so edits are never lost.
func (u *uiState) onNext() {
	if !u.save() {
		return
	}
	u.session.Next()
	u.refresh()
}

func (u *uiState) onPrevious() {
	u.session.Previous()
	u.refresh()
}

func (u *uiState) onExport() {
	path, err := u.session.Export()
	if err != nil {
		u.reportExport(err)
		return
	}
	u.setStatus(fmt.Sprintf("수정된 %d개 행이 저장되었습니다: %s", u.session.ModifiedCount(), path))
}

func (u *uiState) onExportAs() {
	if u.session.ModifiedCount() == 0 {
		u.reportExport(review.ErrNothingToExport)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			u.showError(err)
			return
		}
		if uc == nil {
			return
		}
		path := uc.URI().Path()
		// ExportTo replaces the file atomically, so the handle from the dialog is not used.
		_ = uc.Close()
		n, err := u.session.ExportTo(path)
		if err != nil {
			u.reportExport(err)
			return
		}
		u.setStatus(fmt.Sprintf("수정된 %d개 행이 저장되었습니다: %s", n, path))
	}, u.w)
	fd.SetFileName(filepath.Base(u.session.OutputPath()))
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".xlsx", ".csv", ".tsv"}))
	fd.Show()
}

func (u *uiState) reportExport(err error) {
	if errors.Is(err, review.ErrNothingToExport) {
		u.setStatus("저장할 수정된 데이터가 없습니다.")
		dialog.ShowInformation("정보", "저장할 수정된 데이터가 없습니다.", u.w)
		return
	}
	u.showError(err)
}

type disableable interface {
	Enable()
	Disable()
}

func setEnabled(on bool, widgets ...disableable) {
	for _, w := range widgets {
		if on {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}
