package handler

import (
	"net/http"

	"github.com/mcoot/squidgame/internal/web/middleware"
	"github.com/mcoot/squidgame/internal/web/templates/pages"
)

// HomeHandler handles the home page
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Home renders the sign-in page, or sends signed-in hosts to their dashboard
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	if middleware.GetHost(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := pages.HomeData{
		PageData: pageData(r, "Home"),
		Next:     r.URL.Query().Get("next"),
	}
	renderPage(w, r, pages.Home(data))
}
