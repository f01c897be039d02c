package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAtURI(t *testing.T) {
	uri, err := ParseAtURI("at://did:plc:alice/pub.chive.doc/3kabc")
	require.NoError(t, err)
	require.Equal(t, "did:plc:alice", uri.DID)
	require.Equal(t, "pub.chive.doc", uri.Collection)
	require.Equal(t, "3kabc", uri.RKey)
	require.Equal(t, "at://did:plc:alice/pub.chive.doc/3kabc", uri.String())
}

func TestParseAtURI_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://example.com",
		"at://",
		"at://did:plc:alice",
		"at://did:plc:alice/pub.chive.doc",
		"at://did:plc:alice/pub.chive.doc/",
		"at://did:plc:alice//3kabc",
		"at://alice.example.com/pub.chive.doc/3kabc",
		"at://did:plc:alice/pub.chive.doc/3kabc/extra",
	} {
		_, err := ParseAtURI(raw)
		require.Error(t, err, "uri %q", raw)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	require.Equal(t, "https://pds.example.com", NormalizeEndpoint("https://pds.example.com"))
	require.Equal(t, "https://pds.example.com", NormalizeEndpoint("https://pds.example.com/"))
	require.Equal(t, "https://pds.example.com", NormalizeEndpoint("  https://pds.example.com// "))
	require.Equal(t, "", NormalizeEndpoint("   "))
}
