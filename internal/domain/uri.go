package domain

import (
	"fmt"
	"strings"
)

// AtURI is a parsed at:// record URI: at://<did>/<collection>/<rkey>.
type AtURI struct {
	DID        string
	Collection string
	RKey       string
}

func ParseAtURI(raw string) (AtURI, error) {
	rest, ok := strings.CutPrefix(raw, "at://")
	if !ok {
		return AtURI{}, fmt.Errorf("invalid at-uri %q: missing at:// prefix", raw)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return AtURI{}, fmt.Errorf("invalid at-uri %q: want at://did/collection/rkey", raw)
	}
	if !strings.HasPrefix(parts[0], "did:") {
		return AtURI{}, fmt.Errorf("invalid at-uri %q: authority is not a did", raw)
	}
	return AtURI{DID: parts[0], Collection: parts[1], RKey: parts[2]}, nil
}

func (u AtURI) String() string {
	return "at://" + u.DID + "/" + u.Collection + "/" + u.RKey
}
