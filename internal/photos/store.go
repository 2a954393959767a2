// Package photos stores player photos and serves them by public URL.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/mcoot/squidgame/internal/model"
)

// DefaultMaxBytes caps a single upload at 5 MiB
const DefaultMaxBytes = 5 << 20

// allowedTypes are the raster formats browsers render inline. Script-capable
// image types such as SVG are refused.
var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Store writes photo objects to an afero filesystem. Objects are never
// deleted; a replaced photo leaves its old object in place.
type Store struct {
	fs        afero.Fs
	urlPrefix string
	maxBytes  int64
	logger    *slog.Logger
}

// NewStore creates a Store over fs. urlPrefix is the path the objects are
// served under, e.g. "/photos".
func NewStore(fs afero.Fs, urlPrefix string, maxBytes int64, logger *slog.Logger) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		fs:        fs,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxBytes:  maxBytes,
		logger:    logger.With(slog.String("component", "photos")),
	}
}

// NewFs returns a disk filesystem rooted at dir, or an in-memory one when
// dir is empty
func NewFs(dir string) (afero.Fs, error) {
	if dir == "" {
		return afero.NewMemMapFs(), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), dir), nil
}

// ObjectName is the storage path for a player's photo uploaded at t
func ObjectName(playerID model.PlayerID, t time.Time, ext string) string {
	return fmt.Sprintf("%s-%d%s", playerID, t.UnixMilli(), ext)
}

// Upload validates r as an image and writes it under a fresh object name,
// returning the public URL. Writing over an existing object is allowed.
func (s *Store) Upload(ctx context.Context, playerID model.PlayerID, r io.Reader, at time.Time) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return "", model.ErrPhotoEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", model.ErrPhotoTooLarge
	}

	mt := mimetype.Detect(data)
	if !allowedType(mt) {
		return "", fmt.Errorf("%w: detected %s", model.ErrPhotoNotImage, mt.String())
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := ObjectName(playerID, at, mt.Extension())
	if err := afero.WriteReader(s.fs, "/"+name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}

	s.logger.Debug("photo stored",
		slog.String("player_id", string(playerID)),
		slog.String("object", name),
		slog.String("mime", mt.String()),
		slog.Int("bytes", len(data)))

	return s.URL(name), nil
}

func allowedType(mt *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// URL is the public URL of an object
func (s *Store) URL(name string) string {
	return s.urlPrefix + "/" + name
}

// Handler serves stored objects; mount it under the URL prefix. Responses
// are never sniffed and run sandboxed if a browser navigates to one.
func (s *Store) Handler() http.Handler {
	files := http.StripPrefix(s.urlPrefix, http.FileServer(afero.NewHttpFs(s.fs).Dir("/")))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "sandbox")
		files.ServeHTTP(w, r)
	})
}

// Open returns an object's contents, for tests and tooling
func (s *Store) Open(name string) (afero.File, error) {
	return s.fs.Open(path.Join("/", name))
}
