// Package templates groups the templ views. Run go generate here after
// editing a .templ file and commit the regenerated _templ.go files.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate
