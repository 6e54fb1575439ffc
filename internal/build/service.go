package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docmerge/internal/compose"
)

// Composer assembles the comprehensive merged tree (implemented by *compose.Composer).
type Composer interface {
	Compose(ctx context.Context, mergedRoot string) (*compose.Result, error)
}

// Strategy names the composition that produced a tree.
type Strategy string

const (
	// StrategyComprehensive merges every configured repository.
	StrategyComprehensive Strategy = "comprehensive"

	// StrategyDegraded holds the primary local sources only.
	StrategyDegraded Strategy = "degraded"
)

// Outcome describes a successful build.
type Outcome struct {
	Strategy Strategy

	// Root is the merged tree; SourcePath the source directory handed to the emitter.
	Root       string
	SourcePath string

	// Composition is set for comprehensive builds.
	Composition *compose.Result

	// Cause is the composition error that triggered the degraded strategy.
	Cause error

	// Augmented reports generated sources were added to a degraded tree.
	// AugmentErr holds the augmentation warning when they could not be.
	Augmented  bool
	AugmentErr error

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// Degraded reports whether the fallback strategy produced the tree.
func (o *Outcome) Degraded() bool { return o.Strategy == StrategyDegraded }
