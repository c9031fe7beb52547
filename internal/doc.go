// Package internal contains the core implementation packages for lumen.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - content: Order-preserving JSON values as delivered by Sanity
//   - locale: Locale codes and resolution of localized values with fallback
//   - sanity: GROQ client with response caching and image URLs
//   - site: Page rendering and the concurrent build of every locale
//   - feed: RSS 2.0 documents per locale
//   - reveal: Scroll reveal scheduling over an abstract document
//   - dom: HTML documents implementing the reveal element model
//   - theme: Light and dark theme preference
//   - config: Configuration loading, validation and the init wizard
//   - errors: Per-page build problems and the dev server overlay
//   - logging: Structured logging on log/slog
//   - server: Development server with live reload over WebSocket
//   - watcher: File system monitoring with debouncing
//   - version: Build information
//
// # Data Flow
//
// A build fetches previews, posts and categories through sanity, resolves
// every localized field for each locale through locale, renders pages in
// site, and prerenders reveal animations by running the reveal scheduler
// against a dom document. The dev server runs the same build on every
// watched change and tells open pages to reload.
package internal
