// Package overlay copies directory trees into a merged source tree.
//
// ReplaceTree places a subtree at a destination that must not exist yet and
// fails with a *CollisionError otherwise. Overlay merges a subtree into an
// existing destination: files are overwritten, directories are merged and
// nothing is ever removed. Every overwrite is reported as a Notice to the
// engine's NoticeSink and logged at WARN, tagged with the mapping that caused
// it (see Engine.For).
package overlay
