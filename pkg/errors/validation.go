package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// routeTypeRegex matches feed route type names such as "train_normal".
var routeTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateRouteType validates a route type name given on the command line,
// in a config file or in an API query.
//
// Only the shape of the name is checked. Unknown but well-formed types are
// accepted because the feed may add new ones.
func ValidateRouteType(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRouteType, "route type cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidRouteType, "route type too long (max 64 characters)")
	}
	if !routeTypeRegex.MatchString(name) {
		return New(ErrCodeInvalidRouteType, "invalid route type: %q", name)
	}
	return nil
}

// ValidateRouteTypes validates every name in types.
func ValidateRouteTypes(types []string) error {
	for _, t := range types {
		if err := ValidateRouteType(t); err != nil {
			return err
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}

// maxQueryLength bounds station search queries.
const maxQueryLength = 256

// ValidateQuery validates a station search query. An empty query is valid
// and matches nothing.
func ValidateQuery(q string) error {
	if len(q) > maxQueryLength {
		return New(ErrCodeInvalidInput, "query too long (max %d characters)", maxQueryLength)
	}
	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "query contains invalid control characters")
		}
	}
	return nil
}
