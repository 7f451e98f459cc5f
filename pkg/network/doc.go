// Package network holds the raw transit network model consumed by the map
// derivation pipeline.
//
// # Overview
//
// A [Network] is what the upstream feed delivers: a flat list of stations and
// a list of routes, where every route is an ordered polyline of station
// references. References may point at stations that are missing from the
// station list (disabled or filtered upstream); [Normalize] resolves them and
// silently drops what cannot be resolved.
//
// # Keys
//
// Two small value types identify things across the pipeline:
//
//   - [RouteKey]: a route's color and type. Colors are unique per type.
//   - [Pair]: an unordered pair of station IDs, normalized so A < B.
//
// Both are comparable and can be used directly as map keys, which avoids the
// separator collisions of concatenated string keys.
//
// # Reading
//
// [ReadJSON] decodes the feed envelope:
//
//	{"data": {"stations": [...], "routes": [...]}}
//
// IDs and colors may be JSON strings or numbers.
package network
