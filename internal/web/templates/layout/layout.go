// Package layout holds the page shell shared by every page.
package layout

import "github.com/mcoot/squidgame/internal/model"

// FlashMessage is a one-shot notification carried across a redirect
type FlashMessage struct {
	Type    string
	Message string
}

// PageData is common data for all pages
type PageData struct {
	Title string
	Host  *model.Host
	Flash *FlashMessage
	// BodyClass is added to <body>
	BodyClass string
}
