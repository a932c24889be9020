package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

var (
	ErrNotFound        = errors.New("content not found")
	ErrInvalidRef      = errors.New("invalid content reference")
	ErrTooLarge        = errors.New("content exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrUnavailable     = errors.New("content store unavailable")
)

// Store is a content addressed blob store. Refs are CID strings.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	URL(ref string) string
}

var refPrefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   mh.SHA2_256,
	MhLength: -1,
}

// ComputeRef returns the CIDv1 (raw, sha2-256) of data.
func ComputeRef(data []byte) (string, error) {
	c, err := refPrefix.Sum(data)
	if err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return c.String(), nil
}

// ParseRef checks that ref is a well formed CID and returns its canonical form.
func ParseRef(ref string) (string, error) {
	c, err := cid.Decode(ref)
	if err != nil {
		return "", fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	return c.String(), nil
}

// Verify reports whether data hashes to ref. Only refs built with a
// multihash this package can recompute are checked.
func Verify(ref string, data []byte) error {
	c, err := cid.Decode(ref)
	if err != nil {
		return fmt.Errorf("%q: %w", ref, ErrInvalidRef)
	}
	sum, err := c.Prefix().Sum(data)
	if err != nil {
		return fmt.Errorf("rehash %s: %w", ref, err)
	}
	if !sum.Equals(c) {
		return fmt.Errorf("content does not match %s: %w", ref, ErrInvalidRef)
	}
	return nil
}
