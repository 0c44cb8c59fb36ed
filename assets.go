// Package dashboard provides embedded assets for production builds.
package dashboard

import "embed"

// In dev mode assets are loaded from disk; otherwise they are served from
// these embedded filesystems.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
