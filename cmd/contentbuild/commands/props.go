package commands

import (
	"encoding/json"

	"git.home.luguber.info/inful/contentbuild/internal/config"
	"git.home.luguber.info/inful/contentbuild/internal/target"
)

// PropsCmd implements the 'props' command.
type PropsCmd struct {
	Path  string `required:"" help:"Page url path, e.g. /about"`
	Cache string `help:"Cache file to read (defaults to target.cache_file)"`
}

func (p *PropsCmd) Run(g *Global, root *CLI) error {
	cachePath := p.Cache
	if cachePath == "" {
		cfg, err := config.Load(root.Config)
		if err != nil {
			return err
		}
		cachePath = cfg.Target.CacheFile
	}
	cache, err := target.Load(cachePath)
	if err != nil {
		return err
	}
	props, err := cache.PropsForPath(p.Path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(g.out())
	enc.SetIndent("", "  ")
	return enc.Encode(props)
}
