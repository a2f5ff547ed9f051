package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/bytebank/banksync/internal/logging"
	"github.com/bytebank/banksync/internal/models"
)

// schemaVersion tags every persisted session blob. Bump it together with a
// migration case in migrateSession.
const schemaVersion = 2

type persistedSession struct {
	User          *models.User `json:"user"`
	SchemaVersion int          `json:"schemaVersion"`
}

// Version 1 stored the display name under "displayName".
type persistedUserV1 struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl"`
	Anonymous   bool   `json:"anonymous"`
}

type persistedSessionV1 struct {
	User          *persistedUserV1 `json:"user"`
	SchemaVersion int              `json:"schemaVersion"`
}

// loadSession reads the persisted identity snapshot. A missing file, an
// unparseable blob or an unmigratable version all mean "absent", never a
// failure: a broken local cache must not block startup.
func loadSession(path string, log logging.Logger) *models.User {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn(context.Background(), "session blob unreadable, treating as signed out", "path", path, "error", err)
		}
		return nil
	}

	var probe struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		log.Warn(context.Background(), "session blob corrupt, treating as signed out", "path", path, "error", err)
		return nil
	}

	user, err := migrateSession(raw, probe.SchemaVersion)
	if err != nil {
		log.Warn(context.Background(), "session blob migration failed, treating as signed out",
			"path", path, "version", probe.SchemaVersion, "error", err)
		return nil
	}
	return user
}

// migrateSession upgrades a persisted blob of the given version to the
// current shape. Pure: no IO, deterministic for a given input.
func migrateSession(raw []byte, version int) (*models.User, error) {
	switch version {
	case 1:
		var v1 persistedSessionV1
		if err := json.Unmarshal(raw, &v1); err != nil {
			return nil, err
		}
		if v1.User == nil {
			return nil, nil
		}
		return &models.User{
			ID:        v1.User.ID,
			Name:      v1.User.DisplayName,
			Email:     v1.User.Email,
			PhotoURL:  v1.User.PhotoURL,
			Anonymous: v1.User.Anonymous,
		}, nil
	case schemaVersion:
		var cur persistedSession
		if err := json.Unmarshal(raw, &cur); err != nil {
			return nil, err
		}
		return cur.User, nil
	default:
		return nil, errors.New("unknown schema version")
	}
}

func saveSession(path string, user *models.User, log logging.Logger) {
	raw, err := json.Marshal(persistedSession{User: user, SchemaVersion: schemaVersion})
	if err != nil {
		log.Error(context.Background(), "session blob encode failed", "error", err)
		return
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		log.Error(context.Background(), "session blob write failed", "path", path, "error", err)
	}
}
