// Package renew provides refresh functions that obtain new credentials from an
// authorization server.
package renew
