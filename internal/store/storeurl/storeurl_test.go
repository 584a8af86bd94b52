package storeurl

import (
	"context"
	"errors"
	"testing"

	"github.com/discochess/gamelens/internal/codec/noopcodec"
	"github.com/discochess/gamelens/internal/store/diskstore"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		loc  string
		want Location
	}{
		{"relative dir", "data/evals", Location{Scheme: SchemeFile, Path: "data/evals"}},
		{"absolute dir", "/var/lib/evals", Location{Scheme: SchemeFile, Path: "/var/lib/evals"}},
		{"file url", "file:///tmp/evals", Location{Scheme: SchemeFile, Path: "/tmp/evals"}},
		{"gcs bucket", "gs://evals", Location{Scheme: SchemeGCS, Bucket: "evals"}},
		{"gcs prefix", "gs://evals/v2/db/", Location{Scheme: SchemeGCS, Bucket: "evals", Prefix: "v2/db"}},
		{
			"s3 options", "s3://evals/db?region=eu-west-1&endpoint=http://localhost:9000",
			Location{Scheme: SchemeS3, Bucket: "evals", Prefix: "db", Region: "eu-west-1", Endpoint: "http://localhost:9000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.loc)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.loc, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.loc, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, loc := range []string{"", "gs://", "s3:///prefix", "ftp://host/x", "file://"} {
		if _, err := Parse(loc); err == nil {
			t.Errorf("Parse(%q) error = nil, want error", loc)
		}
	}
	if _, err := Parse(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("Parse(\"\") error = %v, want ErrEmpty", err)
	}
}

func TestLocation_String(t *testing.T) {
	for _, loc := range []string{"gs://evals/v2", "s3://evals", "/tmp/evals"} {
		l, err := Parse(loc)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", loc, err)
		}
		if got := l.String(); got != loc {
			t.Errorf("String() = %q, want %q", got, loc)
		}
	}
}

func TestOpen_Disk(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(context.Background(), dir, noopcodec.New())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer st.Close()
	if _, ok := st.(*diskstore.Store); !ok {
		t.Fatalf("Open() = %T, want *diskstore.Store", st)
	}

	ctx := context.Background()
	if err := st.Put(ctx, "reports/a.json", []byte("{}")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := st.Get(ctx, "reports/a.json")
	if err != nil || string(got) != "{}" {
		t.Errorf("Get() = %q, %v", got, err)
	}
}
