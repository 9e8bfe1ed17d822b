package ffmpeg

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func bundleZip(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte("#!/bin/sh\n")); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testResolver(t *testing.T, env map[string]string, onPath ...string) *resolver {
	return &resolver{
		getenv: func(k string) string { return env[k] },
		lookPath: func(name string) (string, error) {
			for _, p := range onPath {
				if p == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", errors.New("not found")
		},
		cacheDir: t.TempDir(),
		goos:     "linux",
		goarch:   "amd64",
		embedded: func(string) (io.ReadCloser, bool, error) { return nil, false, nil },
		download: func(string) (io.ReadCloser, error) { return nil, errors.New("offline") },
	}
}

func TestResolveEnvAndPath(t *testing.T) {
	r := testResolver(t, map[string]string{envFFmpegPath: "/opt/ffmpeg"}, "ffprobe")

	paths, err := r.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if paths.FFmpeg != "/opt/ffmpeg" || paths.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("paths = %+v", paths)
	}
}

func TestResolveInstallsDownloadedBundle(t *testing.T) {
	r := testResolver(t, nil)
	archive := bundleZip(t, "ffmpeg", "ffprobe", "readme.txt")
	var asked string
	r.download = func(asset string) (io.ReadCloser, error) {
		asked = asset
		return io.NopCloser(bytes.NewReader(archive)), nil
	}

	paths, err := r.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if asked != "ffmpeg-6.1-linux-64.zip" {
		t.Errorf("downloaded %q", asked)
	}
	if paths.FFmpeg != filepath.Join(r.cacheDir, "ffmpeg") {
		t.Errorf("ffmpeg = %q", paths.FFmpeg)
	}
	if _, err := os.Stat(filepath.Join(r.cacheDir, "readme.txt")); !os.IsNotExist(err) {
		t.Error("unrelated archive entry was extracted")
	}

	// second resolve hits the cache
	r.download = func(string) (io.ReadCloser, error) { return nil, errors.New("should not download") }
	if _, err := r.resolve(); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
}

func TestResolvePrefersEmbeddedBundle(t *testing.T) {
	r := testResolver(t, nil)
	archive := bundleZip(t, "bin/ffmpeg", "bin/ffprobe")
	r.embedded = func(string) (io.ReadCloser, bool, error) {
		return io.NopCloser(bytes.NewReader(archive)), true, nil
	}

	if _, err := r.resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

func TestResolveIncompleteBundle(t *testing.T) {
	r := testResolver(t, nil)
	archive := bundleZip(t, "ffmpeg")
	r.download = func(string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(archive)), nil
	}

	if _, err := r.resolve(); err == nil {
		t.Fatal("expected error for bundle without ffprobe")
	}
}

func TestResolveDownloadFailure(t *testing.T) {
	if _, err := testResolver(t, nil).resolve(); err == nil {
		t.Fatal("expected download error")
	}
}
