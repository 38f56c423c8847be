package config

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

const defaultConfigTemplate = `# contentbuild configuration
# Values support ${ENV_VAR} expansion; .env and .env.local are loaded first.

# production | development (NODE_ENV=development also enables development mode)
mode: production

source:
  type: contentful            # contentful | localfs
  contentful:
    access_token: ${CONTENTFUL_ACCESS_TOKEN}
    # delivery_token and preview_token are optional; when empty they are
    # resolved through the management API using access_token.
    delivery_token: ${CONTENTFUL_DELIVERY_TOKEN}
    preview_token: ${CONTENTFUL_PREVIEW_TOKEN}
    space_id: ${CONTENTFUL_SPACE_ID}
    environment: master
    poll_interval: 10s
  localfs:
    dir: content
  retry:
    mode: exponential
    initial: 500ms
    max: 10s
    max_retries: 3

pages:
  models: [PageLayout, PostLayout, PostFeedLayout, PostFeedCategoryLayout]
  config_model: Config

target:
  cache_file: .contentbuild-cache.json
  flatten_asset_urls: true

dev:
  listen: 127.0.0.1:8088
  debounce: 500ms

live_update:
  nats_url: ""
  subject: contentbuild.updates

history:
  path: ""
`

// Init writes a default configuration file. Existing files are kept unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write configuration").
			WithContext("path", path).
			Build()
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
