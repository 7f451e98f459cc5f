package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
)

// Keyer derives cache keys from pipeline inputs.
type Keyer interface {
	// FeedKey is the key for the raw feed downloaded from url.
	FeedKey(url string) string

	// MapKey is the key for the map model derived from the feed whose
	// content hash is feedHash.
	MapKey(feedHash string, opts MapKeyOpts) string
}

// MapKeyOpts are the inputs besides the feed that change a derived map.
type MapKeyOpts struct {
	RouteTypes      []string `json:"route_types"`
	OneWay          bool     `json:"one_way"`
	DiagonalScaling bool     `json:"diagonal_scaling"`
	FormatVersion   int      `json:"format_version"`
}

// DefaultKeyer produces keys of the form "feed:<hash>" and "map:<hash>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) FeedKey(url string) string {
	return "feed:" + Hash([]byte(strings.TrimSpace(url)))
}

// MapKey hashes the feed hash together with every option. The route type
// order does not matter: a selection is a set.
func (DefaultKeyer) MapKey(feedHash string, opts MapKeyOpts) string {
	opts.RouteTypes = slices.Clone(opts.RouteTypes)
	slices.Sort(opts.RouteTypes)
	opts.RouteTypes = slices.Compact(opts.RouteTypes)

	// MapKeyOpts only holds strings, bools and ints, so Marshal cannot fail.
	data, _ := json.Marshal(struct {
		Feed string `json:"feed"`
		MapKeyOpts
	}{feedHash, opts})
	return "map:" + Hash(data)
}

// Hash returns the hex SHA-256 of data. Feeds are identified by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var _ Keyer = DefaultKeyer{}
