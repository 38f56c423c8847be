package target

import (
	"encoding/json"
	"os"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

// Load reads a cache file written by Writer.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("cache file not found (run build first)").
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read cache").
			WithContext("path", path).
			Build()
	}
	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTarget, "invalid cache file").
			WithContext("path", path).
			Build()
	}
	return &c, nil
}
