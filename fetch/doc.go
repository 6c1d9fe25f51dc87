// Package fetch implements a command line client that retrieves protected resources
// through a refreshing OAuth2 client.
//
// All URLs are fetched concurrently through one client, so requests rejected while a
// credential renewal is in progress share that renewal. Options come from flags,
// environment variables (optionally loaded from a .env file) and a YAML config file,
// in that order of precedence.
package fetch
