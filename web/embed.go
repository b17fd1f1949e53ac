package web

import "embed"

// Templates holds the dashboard's layout, partial, and page templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds the CSS and JS assets served under /static.
//
//go:embed static/**/*
var Static embed.FS
