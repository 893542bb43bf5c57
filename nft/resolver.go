package nft

import "strings"

const (
	ipfsScheme = "ipfs://"
	arScheme   = "ar://"

	ipfsGateway = "https://ipfs.io/ipfs/"
	arGateway   = "https://arweave.net/"
)

// Resolve maps a scheme-qualified metadata or media URI to a fetchable
// absolute location. It performs no network I/O and is idempotent: once a
// URI has been rewritten it no longer matches a rewrite rule, so resolving
// it again returns it unchanged.
//
// Matching is case-sensitive on the scheme prefix; whitespace is never
// trimmed, and an empty path after the scheme is passed through as-is.
func Resolve(uri string) string {
	switch {
	case strings.HasPrefix(uri, ipfsScheme):
		return ipfsGateway + strings.TrimPrefix(uri, ipfsScheme)
	case strings.HasPrefix(uri, arScheme):
		return arGateway + strings.TrimPrefix(uri, arScheme)
	default:
		return uri
	}
}
