// Package mapmodel derives a renderable transit map model from a normalized
// network.
//
// # Pipeline
//
// [Build] runs five stages over the routes returned by [network.Normalize]:
//
//  1. Aggregate: average every participating station's position over the
//     stops of the selected routes, and record route types.
//  2. Classify: walk every selected route forwards and backwards, sampling
//     a direction bucket per station and route, and recording neighbor
//     groups and one-way adjacency.
//  3. Merge: join each station's neighbor groups that share a route into
//     bundles (union-find), and give each bundle one dominant direction.
//  4. Connect: build one symmetric [Connection] per adjacent station pair,
//     with a lateral offset per line at each end.
//  5. Finish: pick the centering point and sort everything deterministically.
//
// # Direction Buckets
//
// A bearing is snapped to the nearest multiple of 45° and folded modulo 4, so
// a bucket describes an axis rather than a heading: bucket 0 is the x axis,
// bucket 2 the z axis and buckets 1 and 3 the two diagonals. Lines going
// opposite ways along the same axis share a bucket, which is what lets them
// stack side by side at a station.
//
// # Determinism
//
// Build never mutates its input and keeps all scratch state in a per-call
// context, so repeated calls with the same routes and [Selection] produce the
// same [Map], and concurrent calls are safe. Every ordering in the output is
// fully specified; no map iteration order leaks into it.
//
// # Diagnostics
//
// Inconsistent input (for example the two ends of a connection disagreeing
// on its lines) never aborts the build. It is reported as [Diagnostic]
// values on the returned map, and the rest of the map is still produced.
package mapmodel
