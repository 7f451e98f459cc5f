// Package pkg provides the core libraries for railmap transit map derivation.
//
// # Overview
//
// Railmap reads a stations-and-routes feed, as published by schematic transit
// map pages, and derives a map model: a size for every station, a lane offset
// for every line through it, and the set of connections between stations.
// The pkg directory is organized into four main areas:
//
//  1. Domain: [network], [mapmodel], [search]
//  2. Infrastructure: [cache], [config], [errors], [httputil], [observability]
//  3. Integration: [feed], [render], [render/dot]
//  4. Orchestration: [pipeline], [server]
//
// # Architecture
//
// The typical data flow:
//
//	Feed URL (or map page URL)
//	         ↓
//	    [feed] package (download with retry, decode)
//	         ↓
//	    [network] package (resolve route stops to stations)
//	         ↓
//	    [mapmodel] package (bearings, station sizes, lane offsets)
//	         ↓
//	    [render] package (JSON, DOT, SVG, PNG)
//
// # Quick Start
//
// Derive a map model from a feed:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/railmap/pkg/feed"
//	    "github.com/matzehuels/railmap/pkg/mapmodel"
//	    "github.com/matzehuels/railmap/pkg/network"
//	)
//
//	// 1. Fetch the feed
//	client := feed.NewClient(feed.DefaultTimeout, feed.DefaultAttempts, nil)
//	n, _ := client.Fetch(context.Background(), url)
//
//	// 2. Pick route types
//	sel := mapmodel.DefaultSelection(network.RouteTypes(n), network.DefaultRouteTypeOrder)
//
//	// 3. Build the model
//	m := mapmodel.Build(network.Normalize(n), sel, mapmodel.Options{})
//
// # Main Packages
//
// ## Domain
//
// [network] - Feed types (stations, routes, stops) and normalization of route
// stop lists into station sequences.
//
// [mapmodel] - Map derivation: station orientation from line bearings,
// diagonal scaling, lane offsets within a station, one-way detection, and
// station-to-station transfer connections.
//
// [search] - Accent- and case-insensitive search over station and route
// names.
//
// ## Infrastructure
//
// [cache] - Byte caches keyed by feed hash and map options. File, Redis and
// MongoDB backends.
//
// [config] - TOML and YAML configuration with environment overrides.
//
// [errors] - Error codes shared by the CLI and the HTTP API.
//
// [observability] - Hooks for pipeline stages, cache access and HTTP calls.
//
// ## Orchestration
//
// [pipeline] - Fetch, build and render used by both the CLI and the server.
// Ensures consistent behavior across entry points.
//
// [server] - HTTP API serving map models, rendered maps and search.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                # All tests
//	go test ./pkg/mapmodel/...       # Specific package
//
// [network]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/network
// [mapmodel]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/mapmodel
// [search]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/search
// [cache]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/observability
// [feed]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/feed
// [render]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/render
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/railmap/pkg/server
package pkg
