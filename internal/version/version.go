// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.4.0"

// Milestones:
// 0.4.0 - Interactive browser, JSON export, textfile metrics
// 0.3.0 - Layered configuration, YAML catalogs, parallel timeline build
// 0.2.0 - Terminal elevation chart and zenithal sky plot
// 0.1.0 - Initial release: Sun/Moon interference, elevation limit, LST summary
