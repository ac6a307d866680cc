package crawl

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
)

// Kind tells the engine how to handle a fetched page.
type Kind int

const (
	// KindListing pages enumerate detail links plus an optional "next" link.
	KindListing Kind = iota
	// KindDetail pages carry the full record for one item.
	KindDetail
)

func (k Kind) String() string {
	switch k {
	case KindListing:
		return "listing"
	case KindDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Request is a single pending page visit on the frontier.
type Request struct {
	URL   string
	Kind  Kind
	Depth int
}

// Check guards against pagination chains that never terminate.
func (r *Request) Check(maxDepth int) error {
	if maxDepth > 0 && r.Depth > maxDepth {
		return errors.New("max depth limit reached")
	}
	return nil
}

// Fingerprint identifies a request for revisit suppression.
func (r *Request) Fingerprint() string {
	block := md5.Sum([]byte("GET" + r.URL))
	return hex.EncodeToString(block[:])
}
