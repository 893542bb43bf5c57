package nft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeExtractsStringFields(t *testing.T) {
	doc := []byte(`{"name":"T","description":"D","image":"ipfs://img","animation_url":"ipfs://anim","attributes":[{"trait_type":"x","value":1}]}`)
	meta, err := Normalize(doc)
	require.NoError(t, err)
	require.Equal(t, "T", *meta.Name)
	require.Equal(t, "D", *meta.Description)
	require.Equal(t, "ipfs://img", *meta.Image)
	require.Equal(t, "ipfs://anim", *meta.AnimationURL)
	require.JSONEq(t, `[{"trait_type":"x","value":1}]`, string(meta.Attributes))
	require.JSONEq(t, string(doc), string(meta.Raw))
}

func TestNormalizeNonStringFieldsAreAbsent(t *testing.T) {
	meta, err := Normalize([]byte(`{"name":42}`))
	require.NoError(t, err)
	require.Nil(t, meta.Name)
	require.Nil(t, meta.Description)
	require.Nil(t, meta.Image)
	require.Nil(t, meta.AnimationURL)
}

func TestNormalizeMissingAttributes(t *testing.T) {
	meta, err := Normalize([]byte(`{"name":"T"}`))
	require.NoError(t, err)
	require.Nil(t, meta.Attributes)
}

func TestNormalizeInvalidJSON(t *testing.T) {
	_, err := Normalize([]byte(`not json`))
	require.ErrorIs(t, err, ErrNotJSON)
}
