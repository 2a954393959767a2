package photos

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/testutil"
)

// 1x1 transparent PNG
var pngPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

type StoreSuite struct {
	suite.Suite
	fs    afero.Fs
	store *Store
	ctx   context.Context
	at    time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.store = NewStore(s.fs, "/photos/", 1024, testutil.NopLogger())
	s.ctx = context.Background()
	s.at = time.UnixMilli(1726567200123)
}

func (s *StoreSuite) TestObjectName() {
	s.Equal("p1-1726567200123.png", ObjectName("p1", s.at, ".png"))
}

func (s *StoreSuite) TestUploadStoresImage() {
	url, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(pngPixel), s.at)
	s.Require().NoError(err)
	s.Equal("/photos/p1-1726567200123.png", url)

	f, err := s.store.Open("p1-1726567200123.png")
	s.Require().NoError(err)
	defer f.Close()
	got, err := io.ReadAll(f)
	s.Require().NoError(err)
	s.Equal(pngPixel, got)
}

func (s *StoreSuite) TestUploadOverwritesSameName() {
	_, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(pngPixel), s.at)
	s.Require().NoError(err)
	_, err = s.store.Upload(s.ctx, "p1", bytes.NewReader(pngPixel), s.at)
	s.NoError(err)
}

func (s *StoreSuite) TestOldObjectsAreKept() {
	_, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(pngPixel), s.at)
	s.Require().NoError(err)
	_, err = s.store.Upload(s.ctx, "p1", bytes.NewReader(pngPixel), s.at.Add(time.Second))
	s.Require().NoError(err)

	entries, err := afero.ReadDir(s.fs, "/")
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *StoreSuite) TestUploadRejectsEmpty() {
	_, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(nil), s.at)
	s.ErrorIs(err, model.ErrPhotoEmpty)
}

func (s *StoreSuite) TestUploadRejectsNonImage() {
	_, err := s.store.Upload(s.ctx, "p1", bytes.NewReader([]byte("just some text")), s.at)
	s.ErrorIs(err, model.ErrPhotoNotImage)
}

func (s *StoreSuite) TestUploadRejectsSVG() {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.cookie)</script></svg>`)
	_, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(svg), s.at)
	s.ErrorIs(err, model.ErrPhotoNotImage)

	entries, err := afero.ReadDir(s.fs, "/")
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *StoreSuite) TestUploadAcceptsGIF() {
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	url, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(gif), s.at)
	s.Require().NoError(err)
	s.Equal("/photos/p1-1726567200123.gif", url)
}

func (s *StoreSuite) TestUploadRejectsOversized() {
	big := append(append([]byte{}, pngPixel...), make([]byte, 2048)...)
	_, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(big), s.at)
	s.ErrorIs(err, model.ErrPhotoTooLarge)
}

func (s *StoreSuite) TestUploadHonoursCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.store.Upload(ctx, "p1", bytes.NewReader(pngPixel), s.at)
	s.ErrorIs(err, context.Canceled)
}

func (s *StoreSuite) TestHandlerServesObject() {
	url, err := s.store.Upload(s.ctx, "p1", bytes.NewReader(pngPixel), s.at)
	s.Require().NoError(err)

	rec := httptest.NewRecorder()
	s.store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("image/png", rec.Header().Get("Content-Type"))
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
	s.Equal("sandbox", rec.Header().Get("Content-Security-Policy"))
	s.Equal(pngPixel, rec.Body.Bytes())
}

func (s *StoreSuite) TestHandlerMissingObject() {
	rec := httptest.NewRecorder()
	s.store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photos/nope.png", nil))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *StoreSuite) TestNewFsInMemoryWhenNoDir() {
	fs, err := NewFs("")
	s.Require().NoError(err)
	s.IsType(&afero.MemMapFs{}, fs)
}

func (s *StoreSuite) TestNewFsOnDisk() {
	dir := s.T().TempDir()
	fs, err := NewFs(dir)
	s.Require().NoError(err)

	store := NewStore(fs, "/photos", 0, testutil.NopLogger())
	_, err = store.Upload(s.ctx, "p1", bytes.NewReader(pngPixel), s.at)
	s.Require().NoError(err)

	exists, err := afero.Exists(afero.NewOsFs(), dir+"/p1-1726567200123.png")
	s.Require().NoError(err)
	s.True(exists)
}
