package app

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"go.uber.org/zap"

	"yashubustudio/reviewdesk/review"
)

// AppID identifies the desktop application to Fyne preferences storage.
const AppID = "yashubustudio.reviewdesk"

// Run loads the configuration, restores the last session inputs and shows
// the review window on a. The configuration is saved when the window closes.
func Run(a fyne.App, cfgPath string) error {
	cfg, err := review.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	capture := newLogCapture(logLineLimit)
	defer capture.Close()
	logger, err := newLogger(cfg.LogLevel, capture)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	sess := review.NewSession(cfg, logger)
	u := buildUI(a, sess, capture, logger)
	u.restore(cfg)
	u.w.ShowAndRun()

	final := sess.Config()
	if sess.Loaded() {
		final.LastFile = sess.SourcePath()
	}
	if err := review.SaveConfig(cfgPath, final); err != nil {
		logger.Warn("config not saved", zap.Error(err))
		return err
	}
	return nil
}

// restore reapplies the image directory and spreadsheet remembered from the
// previous run. Failures are logged only; the user can pick new ones.
func (u *uiState) restore(cfg review.Config) {
	if cfg.ImageDir != "" {
		u.imageDirEntry.SetText(cfg.ImageDir)
		if err := u.session.SetImageDirectory(cfg.ImageDir); err != nil {
			u.logger.Info("remembered image directory unavailable", zap.String("dir", cfg.ImageDir))
		}
	}
	if cfg.LastFile != "" {
		if _, err := os.Stat(cfg.LastFile); err != nil {
			u.logger.Info("remembered spreadsheet unavailable", zap.String("path", cfg.LastFile))
		} else if err := u.session.Load(cfg.LastFile); err == nil {
			u.afterLoad(cfg.LastFile)
		}
	}
	u.refresh()
}
