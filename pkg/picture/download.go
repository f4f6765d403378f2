package picture

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// download stores the image at src in fs and returns its name there.
func (p *Preparer) download(ctx context.Context, fs afero.Fs, src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", errors.Wrap(err, "parse image url")
	}

	resp, err := p.client.R().SetContext(ctx).Get(src)
	if err != nil {
		return "", errors.Wrap(err, "download image")
	}

	defer func() {
		_ = resp.RawBody().Close()
	}()

	if resp.StatusCode() >= 300 {
		return "", errors.Errorf("download image: %s", resp.Status())
	}

	name := xid.New().String() + path.Ext(u.Path)
	f, err := fs.Create(name)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	bar := progressbar.DefaultBytes(resp.RawResponse.ContentLength, fmt.Sprintf("Downloading %s", path.Base(u.Path)))
	n, err := io.Copy(io.MultiWriter(f, bar), resp.RawBody())
	if err != nil {
		return "", errors.Wrap(err, "save image")
	}

	p.logger.With(zap.String("url", src), zap.String("file", name), zap.Int64("bytes", n)).Debug("image downloaded")
	return name, nil
}
