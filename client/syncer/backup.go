package syncer

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	apperrors "github.com/xingkaijun/modernnav/internal/errors"
	"github.com/xingkaijun/modernnav/nav"
)

// Export serializes the current local state as a versioned backup envelope.
func (e *Engine) Export() ([]byte, error) {
	snap := e.Local()
	prefs, err := json.Marshal(snap.Preferences)
	if err != nil {
		return nil, errors.Wrap(err, "[Engine.Export] marshal prefs")
	}

	backup := nav.Backup{
		Version:    nav.BackupVersion,
		Timestamp:  e.nowFunc().UnixMilli(),
		Categories: snap.Categories,
		Background: snap.Background,
		Prefs:      prefs,
	}
	raw, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "[Engine.Export] marshal backup")
	}
	return raw, nil
}

// Import applies a backup to local state and pushes it. Both the versioned
// envelope and a bare category array (the pre-envelope export format) are
// accepted. Fields absent from the backup are left untouched. The local
// apply succeeds even without a session; the push then simply waits for the
// next login.
func (e *Engine) Import(ctx context.Context, raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return errors.Wrap(apperrors.ErrInvalidData, "[Engine.Import] empty input")
	}

	var backup nav.Backup
	if trimmed[0] == '[' {
		var cats []nav.Category
		if err := json.Unmarshal(trimmed, &cats); err != nil {
			return errors.Wrap(apperrors.ErrInvalidData, "[Engine.Import] parse category array")
		}
		backup.Categories = cats
	} else {
		if err := json.Unmarshal(trimmed, &backup); err != nil {
			return errors.Wrap(apperrors.ErrInvalidData, "[Engine.Import] parse backup")
		}
		if backup.Version > nav.BackupVersion {
			return errors.Wrapf(apperrors.ErrInvalidData, "[Engine.Import] unsupported backup version %d", backup.Version)
		}
	}

	if len(backup.Categories) == 0 && backup.Background == "" && len(backup.Prefs) == 0 {
		return errors.Wrap(apperrors.ErrInvalidData, "[Engine.Import] backup holds no data")
	}

	if len(backup.Categories) > 0 {
		cats := nav.EnsureCategoryIDs(backup.Categories)
		encoded, err := json.Marshal(cats)
		if err != nil {
			return errors.Wrap(err, "[Engine.Import] marshal categories")
		}
		if err := e.Save(ctx, nav.FieldCategories, string(encoded), false); err != nil {
			return err
		}
	}
	if backup.Background != "" {
		if err := e.Save(ctx, nav.FieldBackground, nav.NormalizeBackground(backup.Background), false); err != nil {
			return err
		}
	}
	if len(backup.Prefs) > 0 {
		prefs := nav.NormalizePreferences(backup.Prefs)
		encoded, err := json.Marshal(prefs)
		if err != nil {
			return errors.Wrap(err, "[Engine.Import] marshal prefs")
		}
		if err := e.Save(ctx, nav.FieldPrefs, string(encoded), false); err != nil {
			return err
		}
	}

	if !e.Online() {
		return nil
	}
	if err := e.Flush(ctx); err != nil && !errors.Is(err, apperrors.ErrNotAuthenticated) {
		return err
	}
	return nil
}
