package blogcontent

import "embed"

// EmbeddedAssets contains static assets shipped with the engine:
// blog.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
