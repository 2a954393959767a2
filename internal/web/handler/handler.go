package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/squidgame/internal/model"
	"github.com/mcoot/squidgame/internal/web/middleware"
	"github.com/mcoot/squidgame/internal/web/templates/layout"
)

// Largest multipart body kept in memory; the rest spills to temp files
const maxFormMemory = 8 << 20

func renderPage(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title: title,
		Host:  middleware.GetHost(r.Context()),
		Flash: middleware.GetFlash(r.Context()),
	}
}

// redirect sends the browser to url, using HX-Redirect for htmx requests
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashRedirect sets a flash message and redirects
func flashRedirect(w http.ResponseWriter, r *http.Request, flashType, message, url string) {
	middleware.SetFlash(w, flashType, message)
	redirect(w, r, url)
}

// failRedirect flashes the message for err and redirects
func failRedirect(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, url string) {
	msg := model.Message(err)
	if msg == model.MsgSomethingWrong {
		logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	flashRedirect(w, r, middleware.FlashError, msg, url)
}

// parseForm accepts both multipart and urlencoded bodies
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// formPhoto returns the uploaded "photo" file, or nil when none was chosen
func formPhoto(r *http.Request) (io.ReadCloser, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if hdr.Size == 0 && strings.TrimSpace(hdr.Filename) == "" {
		_ = f.Close()
		return nil, nil
	}
	return f, nil
}
