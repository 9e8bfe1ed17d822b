//go:build ffmpeg_embedded

package ffmpeg

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
)

// static ffmpeg/ffprobe zip bundles named like the download assets
//
//go:embed assets
var bundled embed.FS

func openEmbeddedAsset(name string) (io.ReadCloser, bool, error) {
	file, err := bundled.Open(path.Join("assets", name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("open bundled %s: %w", name, err)
	}
	return file, true, nil
}
