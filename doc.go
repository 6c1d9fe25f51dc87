// Package tokenrefresh provides HTTP clients that transparently renew expired
// credentials.
//
// When a server answers a request with 401 Unauthorized, the client obtains a new
// access token through a single shared renewal and replays the request with it.
// Requests failing while a renewal is in progress wait for that renewal instead of
// starting their own, and each request is replayed at most once.
//
// Two entry points are provided:
//  1. NewClient – wraps the refreshing transport built from explicit transport options;
//  2. ClientOptions.HTTPClient – builds an OAuth2 refresh-token client from options that
//     can be populated from CLI flags or a YAML file.
//
// Example:
//
//	options := &tokenrefresh.ClientOptions{TokenURL: tokenURL, ClientID: id, ClientSecret: secret, StoreURL: "~/.secret/token.json"}
//	client, _ := options.HTTPClient()
//	resp, err := client.Get(resourceURL)
package tokenrefresh
