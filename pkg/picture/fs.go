package picture

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// newFs roots the output directory, creating it when missing.
func newFs(base afero.Fs, path string) (*afero.BasePathFs, error) {
	if exists, err := afero.DirExists(base, path); err != nil {
		return nil, err
	} else if !exists {
		if err := base.MkdirAll(path, 0755); err != nil {
			return nil, errors.Wrap(err, "create output dir")
		}
	}
	return afero.NewBasePathFs(base, path).(*afero.BasePathFs), nil
}
