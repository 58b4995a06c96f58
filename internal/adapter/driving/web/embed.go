package web

import "embed"

// StaticFS holds the embedded static assets (stylesheet and csrf.js).
//
//go:embed static/*
var StaticFS embed.FS
