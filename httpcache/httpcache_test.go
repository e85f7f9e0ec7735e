package httpcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/etnz/folio/date"
	"github.com/rs/zerolog"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"c": 12.5}`)
	}))
	defer srv.Close()

	var got struct {
		C float64 `json:"c"`
	}
	if err := GetJSON(context.Background(), srv.Client(), srv.URL+"/quote", &got); err != nil {
		t.Fatalf("GetJSON() unexpected error = %v", err)
	}
	if got.C != 12.5 {
		t.Errorf("GetJSON() c = %v, want 12.5", got.C)
	}

	err := GetJSON(context.Background(), srv.Client(), srv.URL+"/missing", &got)
	var serr *StatusError
	if !errors.As(err, &serr) || serr.Code != http.StatusNotFound {
		t.Errorf("GetJSON(/missing) error = %v, want a 404 StatusError", err)
	}
}

func TestDiskCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"n": 1}`)
	}))
	defer srv.Close()

	day := date.New(2026, 10, 15)
	client := &http.Client{Transport: &diskCache{
		base:   http.DefaultTransport,
		period: date.Daily,
		dir:    t.TempDir(),
		today:  func() date.Date { return day },
	}}

	var v map[string]int
	for i := 0; i < 3; i++ {
		if err := GetJSON(context.Background(), client, srv.URL+"/profile", &v); err != nil {
			t.Fatalf("GetJSON() unexpected error = %v", err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1 (cached)", n)
	}

	day = date.New(2026, 10, 16)
	if err := GetJSON(context.Background(), client, srv.URL+"/profile", &v); err != nil {
		t.Fatalf("GetJSON() unexpected error = %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hits after expiry = %d, want 2", n)
	}
}

func TestDiskCacheLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"n": 1}`)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	// entries cannot be written in a missing directory
	client := NewCachingIn(filepath.Join(t.TempDir(), "missing"), date.Daily, zerolog.New(&logs).Level(zerolog.DebugLevel))

	var v map[string]int
	if err := GetJSON(context.Background(), client, srv.URL+"/profile", &v); err != nil {
		t.Fatalf("GetJSON() unexpected error = %v", err)
	}
	if v["n"] != 1 {
		t.Errorf("GetJSON() = %v, want n=1", v)
	}
	for _, want := range []string{`"path":"/profile"`, "cache write error"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log %q does not contain %q", logs.String(), want)
		}
	}
}
