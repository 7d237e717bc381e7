// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface and is mounted on the router by the
// Manager when enabled:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
package loader
