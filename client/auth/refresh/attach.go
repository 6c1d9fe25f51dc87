package refresh

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	bearerPrefix = "Bearer "
	tokenMarker  = "tokenrefresh-credential-marker"
)

// TokenAttacher writes a renewed access token onto a request that is about to be replayed.
type TokenAttacher func(req *http.Request, token string)

// TokenExtractor returns the credential a request carries, or empty when it carries none.
type TokenExtractor func(req *http.Request) string

// AttachBearer sets the Authorization header to a bearer credential.
func AttachBearer(req *http.Request, token string) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("Authorization", bearerPrefix+token)
}

// bearerToken returns the bearer credential carried by req, if any.
func bearerToken(req *http.Request) string {
	if req == nil {
		return ""
	}
	value := req.Header.Get("Authorization")
	if len(value) < len(bearerPrefix) || !strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return value[len(bearerPrefix):]
}

type placement struct {
	key    string
	prefix string
	suffix string
	query  bool
}

func (p placement) extract(values []string) string {
	for _, value := range values {
		if len(value) > len(p.prefix)+len(p.suffix) && strings.HasPrefix(value, p.prefix) && strings.HasSuffix(value, p.suffix) {
			return value[len(p.prefix) : len(value)-len(p.suffix)]
		}
	}
	return ""
}

// ExtractorFor derives the TokenExtractor matching attach by observing where attach
// places a token: header values and query parameters are recognized, with any fixed
// text around the token.
func ExtractorFor(attach TokenAttacher) TokenExtractor {
	sample := &http.Request{Header: http.Header{}, URL: &url.URL{}}
	attach(sample, tokenMarker)

	var placements []placement
	for key, values := range sample.Header {
		for _, value := range values {
			if i := strings.Index(value, tokenMarker); i >= 0 {
				placements = append(placements, placement{key: key, prefix: value[:i], suffix: value[i+len(tokenMarker):]})
			}
		}
	}
	if sample.URL != nil {
		for key, values := range sample.URL.Query() {
			for _, value := range values {
				if i := strings.Index(value, tokenMarker); i >= 0 {
					placements = append(placements, placement{key: key, prefix: value[:i], suffix: value[i+len(tokenMarker):], query: true})
				}
			}
		}
	}
	return func(req *http.Request) string {
		if req == nil {
			return ""
		}
		for _, p := range placements {
			var values []string
			switch {
			case p.query && req.URL != nil:
				values = req.URL.Query()[p.key]
			case !p.query:
				values = req.Header.Values(p.key)
			}
			if token := p.extract(values); token != "" {
				return token
			}
		}
		return ""
	}
}
