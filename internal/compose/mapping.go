package compose

import "git.home.luguber.info/inful/docmerge/internal/config"

// Mode selects how a mapping is applied.
type Mode = config.MappingMode

const (
	ModeReplaceTree = config.MappingModeReplaceTree
	ModeOverlay     = config.MappingModeOverlay
)

// Mapping copies Source of Repository to Dest below the merged root.
type Mapping struct {
	Name string
	// Repository names a configured external repository; empty selects
	// layout.repo_root.
	Repository string
	Source     string
	Dest       string
	Mode       Mode
	// Optional mappings whose source is missing are skipped.
	Optional bool
	Exclude  []string
}

// MappingsFromConfig converts configured mappings, preserving their order.
func MappingsFromConfig(in []config.MappingConfig) []Mapping {
	out := make([]Mapping, 0, len(in))
	for _, m := range in {
		out = append(out, Mapping{
			Name:       m.Name,
			Repository: m.Repository,
			Source:     m.Source,
			Dest:       m.Dest,
			Mode:       m.Mode,
			Optional:   m.IsOptional(),
			Exclude:    append([]string(nil), m.Exclude...),
		})
	}
	return out
}
