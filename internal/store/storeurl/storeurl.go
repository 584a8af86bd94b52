// Package storeurl opens a store from a location string.
//
// Supported locations:
//
//	gs://bucket/prefix                  Google Cloud Storage
//	s3://bucket/prefix?region=eu-west-1 AWS S3 (endpoint= for S3-compatible services)
//	/var/lib/gamelens, file:///tmp/db   local directory
package storeurl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/discochess/gamelens/internal/codec"
	"github.com/discochess/gamelens/internal/store"
	"github.com/discochess/gamelens/internal/store/diskstore"
	"github.com/discochess/gamelens/internal/store/gcsstore"
	"github.com/discochess/gamelens/internal/store/s3store"
)

// ErrEmpty indicates an empty location.
var ErrEmpty = errors.New("storeurl: empty location")

// Location schemes.
const (
	SchemeGCS  = "gs"
	SchemeS3   = "s3"
	SchemeFile = "file"
)

// Location is a parsed store location.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
	Path   string // local directory, file scheme only

	Region   string
	Endpoint string
}

// Parse parses a store location. Anything without a gs or s3 scheme is a
// local directory.
func Parse(loc string) (Location, error) {
	if loc == "" {
		return Location{}, ErrEmpty
	}
	if !strings.Contains(loc, "://") {
		return Location{Scheme: SchemeFile, Path: loc}, nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return Location{}, fmt.Errorf("storeurl: parsing %q: %w", loc, err)
	}
	switch u.Scheme {
	case SchemeFile:
		if u.Path == "" {
			return Location{}, fmt.Errorf("storeurl: %q has no path", loc)
		}
		return Location{Scheme: SchemeFile, Path: u.Path}, nil
	case SchemeGCS, SchemeS3:
		if u.Host == "" {
			return Location{}, fmt.Errorf("storeurl: %q has no bucket", loc)
		}
		l := Location{
			Scheme: u.Scheme,
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}
		if u.Scheme == SchemeS3 {
			q := u.Query()
			l.Region = q.Get("region")
			l.Endpoint = q.Get("endpoint")
		}
		return l, nil
	default:
		return Location{}, fmt.Errorf("storeurl: unsupported scheme %q", u.Scheme)
	}
}

// Open parses loc and opens the store it names, using c for compression.
func Open(ctx context.Context, loc string, c codec.Codec) (store.Store, error) {
	l, err := Parse(loc)
	if err != nil {
		return nil, err
	}
	return l.Open(ctx, c)
}

// Open opens the store at l.
func (l Location) Open(ctx context.Context, c codec.Codec) (store.Store, error) {
	switch l.Scheme {
	case SchemeGCS:
		return gcsstore.New(ctx, l.Bucket, c, gcsstore.WithPrefix(l.Prefix))
	case SchemeS3:
		opts := []s3store.Option{s3store.WithPrefix(l.Prefix)}
		if l.Region != "" {
			opts = append(opts, s3store.WithRegion(l.Region))
		}
		if l.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(l.Endpoint))
		}
		return s3store.New(ctx, l.Bucket, c, opts...)
	default:
		return diskstore.New(l.Path, c)
	}
}

// String formats l back into a location string.
func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Path
	}
	s := l.Scheme + "://" + l.Bucket
	if l.Prefix != "" {
		s += "/" + l.Prefix
	}
	return s
}
