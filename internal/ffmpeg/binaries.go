package ffmpeg

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	bundleVersion = "6.1"
	bundleBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"

	envFFmpegPath  = "VIDTRANS_FFMPEG_PATH"
	envFFprobePath = "VIDTRANS_FFPROBE_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

func (p BinaryPaths) complete() bool {
	return p.FFmpeg != "" && p.FFprobe != ""
}

// Ensure resolves ffmpeg and ffprobe once per process, trying in turn the
// VIDTRANS_FFMPEG_PATH and VIDTRANS_FFPROBE_PATH overrides, PATH, a cached
// install, a bundle compiled in with the ffmpeg_embedded tag, and finally a
// download of the static release for this platform.
var Ensure = sync.OnceValues(func() (BinaryPaths, error) {
	return defaultResolver().resolve()
})

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	return paths.FFmpeg, err
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	return paths.FFprobe, err
}

// resolver holds every lookup source so tests can replace them.
type resolver struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	cacheDir string
	goos     string
	goarch   string
	embedded func(asset string) (io.ReadCloser, bool, error)
	download func(asset string) (io.ReadCloser, error)
}

func defaultResolver() *resolver {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return &resolver{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		cacheDir: filepath.Join(base, "vidtrans", "ffmpeg", bundleVersion, runtime.GOOS, runtime.GOARCH),
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		embedded: openEmbeddedAsset,
		download: fetchAsset,
	}
}

func (r *resolver) resolve() (BinaryPaths, error) {
	found := BinaryPaths{
		FFmpeg:  r.getenv(envFFmpegPath),
		FFprobe: r.getenv(envFFprobePath),
	}
	for name, slot := range map[string]*string{"ffmpeg": &found.FFmpeg, "ffprobe": &found.FFprobe} {
		if *slot != "" {
			continue
		}
		if p, err := r.lookPath(name); err == nil {
			*slot = p
		}
	}
	if found.complete() {
		return found, nil
	}

	cached := r.cachedPaths()
	if usable(cached.FFmpeg) && usable(cached.FFprobe) {
		return cached, nil
	}

	asset, err := assetForPlatform(r.goos, r.goarch)
	if err != nil {
		return BinaryPaths{}, err
	}
	if err := r.install(asset); err != nil {
		return BinaryPaths{}, err
	}
	if !usable(cached.FFmpeg) || !usable(cached.FFprobe) {
		return BinaryPaths{}, errors.New("ffmpeg binaries not found after install")
	}
	return cached, nil
}

func (r *resolver) cachedPaths() BinaryPaths {
	suffix := ""
	if r.goos == "windows" {
		suffix = ".exe"
	}
	return BinaryPaths{
		FFmpeg:  filepath.Join(r.cacheDir, "ffmpeg"+suffix),
		FFprobe: filepath.Join(r.cacheDir, "ffprobe"+suffix),
	}
}

// install unpacks asset into the cache, preferring the embedded copy.
func (r *resolver) install(asset string) error {
	src, ok, err := r.embedded(asset)
	if err != nil {
		return err
	}
	if !ok {
		if src, err = r.download(asset); err != nil {
			return err
		}
	}
	defer src.Close()

	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	// zip needs random access, so spool the archive to disk first
	spool, err := os.CreateTemp(r.cacheDir, "bundle-*.zip")
	if err != nil {
		return fmt.Errorf("spool %s: %w", asset, err)
	}
	defer os.Remove(spool.Name())
	defer spool.Close()

	size, err := io.Copy(spool, src)
	if err != nil {
		return fmt.Errorf("spool %s: %w", asset, err)
	}

	archive, err := zip.NewReader(spool, size)
	if err != nil {
		return fmt.Errorf("open %s: %w", asset, err)
	}
	return r.unpack(archive, asset)
}

func (r *resolver) unpack(archive *zip.Reader, asset string) error {
	dest := r.cachedPaths()
	targets := map[string]string{"ffmpeg": dest.FFmpeg, "ffprobe": dest.FFprobe}

	written := 0
	for _, entry := range archive.File {
		target, ok := targets[binaryName(filepath.Base(entry.Name))]
		if !ok {
			continue
		}
		if err := writeExecutable(entry, target); err != nil {
			return fmt.Errorf("extract %s from %s: %w", entry.Name, asset, err)
		}
		written++
	}
	if written < len(targets) {
		return fmt.Errorf("%s is missing ffmpeg or ffprobe", asset)
	}
	return nil
}

// writeExecutable copies entry to a sibling temp file and renames it into
// place, so a crash never leaves a truncated binary at target.
func writeExecutable(entry *zip.File, target string) error {
	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	partial := target + ".partial"
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(partial)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return err
	}
	return os.Rename(partial, target)
}

func fetchAsset(asset string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/v%s/%s", bundleBaseURL, bundleVersion, asset)
	client := &http.Client{Timeout: 5 * time.Minute}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s", asset, resp.Status)
	}
	return resp.Body, nil
}

var platformAssets = map[string]string{
	"linux/amd64":   "linux-64",
	"linux/arm64":   "linux-arm-64",
	"darwin/amd64":  "macos-64",
	"windows/amd64": "win-64",
}

func assetForPlatform(goos, goarch string) (string, error) {
	tag, ok := platformAssets[goos+"/"+goarch]
	if !ok {
		return "", fmt.Errorf("no static ffmpeg build for %s/%s", goos, goarch)
	}
	return "ffmpeg-" + bundleVersion + "-" + tag + ".zip", nil
}

func usable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// maps an archive entry to "ffmpeg" or "ffprobe", or "" for anything else
func binaryName(name string) string {
	base := strings.TrimSuffix(strings.ToLower(name), ".exe")
	if base == "ffmpeg" || base == "ffprobe" {
		return base
	}
	return ""
}
