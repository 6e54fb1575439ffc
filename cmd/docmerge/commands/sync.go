package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docmerge/internal/auth"
	"git.home.luguber.info/inful/docmerge/internal/compose"
	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/git"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	JavaRepo string `name:"java-repo" type:"existingdir" help:"Use an existing tensorflow-java checkout instead of synchronizing it"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.JavaRepo != "" {
		if err := cfg.SetOverridePath(config.PrimaryRepository, s.JavaRepo); err != nil {
			return err
		}
	}

	recorder, flush := newRecorder(cfg)
	defer flush()

	composer, err := compose.New(cfg, git.New(cfg.Sync, auth.DefaultManager, progressWriter(root)), compose.WithRecorder(recorder))
	if err != nil {
		return err
	}
	repos, err := composer.SyncRepositories(g.ctx())
	if err != nil {
		return compose.Classify(err)
	}

	for _, r := range repos {
		head, herr := git.ReadRepoHead(r.Path)
		if herr != nil {
			head = "unknown"
		}
		suffix := ""
		if r.Overridden {
			suffix = " (override)"
		}
		fmt.Printf("%s\t%s\t%s%s\n", r.Name, head, r.Path, suffix)
	}
	return nil
}
