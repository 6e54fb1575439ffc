// Package compose assembles the merged source tree.
//
// A Composer synchronizes the configured external repositories and then
// applies an ordered sequence of subtree mappings with the overlay engine.
// The first mapping replaces the namespace tree; later mappings overlay it,
// so the last writer of a file wins and every overwrite is reported as an
// overlay.Notice.
//
// Any sync or copy error aborts the composition. It is returned wrapped in a
// *Failure that names the stage, repository and mapping involved; the
// original typed error stays reachable through errors.As.
package compose
