package nft

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	metadata []NftMetadataRow
	media    []NftMediaRow
}

func (f *fakeStore) InsertMetadata(_ context.Context, row NftMetadataRow) error {
	for _, r := range f.metadata {
		if r.ContractAddress == row.ContractAddress && r.TokenID == row.TokenID && r.Chain == row.Chain {
			return nil
		}
	}
	f.metadata = append(f.metadata, row)
	return nil
}

func (f *fakeStore) InsertMedia(_ context.Context, row NftMediaRow) error {
	for _, r := range f.media {
		if r.ContractAddress == row.ContractAddress && r.TokenID == row.TokenID && r.MediaType == row.MediaType {
			return nil
		}
	}
	f.media = append(f.media, row)
	return nil
}

func strPtr(s string) *string { return &s }

func TestWorkerProcessHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/meta.json":
			w.Write([]byte(`{"name":"T","image":"http://` + r.Host + `/img.png"}`))
		default:
			w.Write([]byte("pixels"))
		}
	}))
	defer srv.Close()

	store := &fakeStore{}
	stub := &stubS3{}
	objStore := &ObjectStore{Client: stub, Bucket: "b"}
	w := NewWorker(srv.Client(), store, objStore)

	job := MintJob{
		ContractAddress: "0xa",
		TokenID:         "1",
		Chain:           "ethereum",
		MetadataURI:     strPtr(srv.URL + "/meta.json"),
	}
	w.Process(context.Background(), job)

	require.Len(t, store.metadata, 1)
	require.Equal(t, "T", *store.metadata[0].Name)
	require.Len(t, store.media, 1)
	require.Equal(t, MediaImage, store.media[0].MediaType)
}

func TestWorkerProcessMissingMetadataURI(t *testing.T) {
	store := &fakeStore{}
	w := NewWorker(http.DefaultClient, store, nil)
	w.Process(context.Background(), MintJob{ContractAddress: "0xa", TokenID: "1", Chain: "ethereum"})
	require.Empty(t, store.metadata)
	require.Empty(t, store.media)
}

func TestWorkerProcessRedeliveryIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"T"}`))
	}))
	defer srv.Close()

	store := &fakeStore{}
	w := NewWorker(srv.Client(), store, nil)
	job := MintJob{ContractAddress: "0xa", TokenID: "1", Chain: "ethereum", MetadataURI: strPtr(srv.URL)}

	w.Process(context.Background(), job)
	w.Process(context.Background(), job)

	require.Len(t, store.metadata, 1)
}
