package nft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"ipfs", "ipfs://QmX", "https://ipfs.io/ipfs/QmX"},
		{"arweave", "ar://abc123", "https://arweave.net/abc123"},
		{"https passthrough", "https://example.com/x.json", "https://example.com/x.json"},
		{"empty path", "ipfs://", "https://ipfs.io/ipfs/"},
		{"case sensitive scheme", "IPFS://QmX", "IPFS://QmX"},
		{"whitespace preserved", " ipfs://QmX", " ipfs://QmX"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Resolve(c.in))
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	inputs := []string{"ipfs://QmX", "ar://abc123", "https://example.com/x.json"}
	for _, in := range inputs {
		once := Resolve(in)
		twice := Resolve(once)
		require.Equal(t, once, twice, "resolving %q twice should be stable", in)
	}
}
