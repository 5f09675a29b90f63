package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"danmusync/internal/catalog"
)

// webPathPrefixes are the catalog web-path roots mapped into the configured
// danmaku directory, longest first.
var webPathPrefixes = []string{"/data/danmaku/", "/danmaku/"}

// Store checks danmaku presence for catalog entries.
type Store struct {
	catalog *catalog.Store
	root    string
}

// NewStore builds an asset store rooted at the danmaku directory.
func NewStore(cat *catalog.Store, danmakuRoot string) *Store {
	return &Store{catalog: cat, root: danmakuRoot}
}

// Exists reports whether a danmaku file is physically present for the given
// entry and episode. The catalog row must carry a positive comment count and
// the referenced file must exist on disk.
func (s *Store) Exists(ctx context.Context, entry catalog.Entry, episode int) (bool, error) {
	asset, ok, err := s.catalog.Episode(ctx, entry.ID, episode)
	if err != nil {
		return false, fmt.Errorf("episode bookkeeping: %w", err)
	}
	if !ok || asset.CommentCount <= 0 || asset.DanmakuPath == "" {
		return false, nil
	}

	path := s.FilePath(asset.DanmakuPath)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat danmaku file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// FilePath maps a catalog web path to a filesystem location under the
// danmaku root. Absolute paths outside the known web roots pass through
// unchanged.
func (s *Store) FilePath(webPath string) string {
	for _, prefix := range webPathPrefixes {
		if strings.HasPrefix(webPath, prefix) {
			return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(webPath, prefix)))
		}
	}
	if filepath.IsAbs(webPath) {
		return webPath
	}
	return filepath.Join(s.root, filepath.FromSlash(webPath))
}
