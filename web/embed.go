// Package web embeds the page templates and static assets served by the
// fintrack web client.
package web

import "embed"

// TemplatesFS holds the full pages and the htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and icons under static/.
//
//go:embed static/*
var StaticFS embed.FS
