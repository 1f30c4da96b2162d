package command

import (
	"github.com/sandevgo/vrmentor/internal/core"
)

type Deps struct {
	Provider string
	Models   ModelSwitcher
	Cache    SkillCache
	Index    IndexReloader
	Stats    core.StatsProvider
	Search   Recommender
	TopK     int
	Format   func([]core.ItemMatch) string
}

func NewCommands(d Deps) []core.Command {
	cmds := []core.Command{
		NewRefreshCommand(d.Cache, d.Index),
		NewSearchCommand(d.Search, d.TopK, d.Format),
	}
	if d.Models != nil {
		cmds = append(cmds, NewModelCommand(d.Provider, d.Models))
	}
	if d.Stats != nil {
		cmds = append(cmds, NewSkillsCommand(d.Stats, d.Cache))
	}
	return cmds
}
