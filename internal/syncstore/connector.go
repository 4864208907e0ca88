package syncstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/storage"
)

const databaseFileName = "tasks.db"

// Connector opens one Store per profile. Profiles without a root get a
// temporary directory under BaseDir that is removed when the store closes.
type Connector struct {
	BaseDir string
}

func (c Connector) Connect(profile config.Profile) (*Store, error) {
	root := strings.TrimSpace(profile.Root)
	temporary := root == ""
	if temporary {
		dir, err := os.MkdirTemp(c.BaseDir, "taskmesh-"+safeName(profile.ID)+"-")
		if err != nil {
			return nil, fmt.Errorf("create temp root for %s: %w", profile.ID, err)
		}
		root = dir
	} else if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root for %s: %w", profile.ID, err)
	}

	repo, err := storage.OpenSQLite(filepath.Join(root, databaseFileName))
	if err != nil {
		if temporary {
			_ = os.RemoveAll(root)
		}
		return nil, fmt.Errorf("open store for %s: %w", profile.ID, err)
	}

	store := NewStore(profile, repo)
	store.log.Info("store opened", "root", root, "temporary", temporary)
	if temporary {
		store.onClose = func() { _ = os.RemoveAll(root) }
	}
	return store, nil
}

func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
