// Package build runs a merged-tree build with fallback.
//
// Builder first attempts the comprehensive composition of every configured
// repository. If that fails for any reason the partial tree is discarded
// and a degraded tree is built from the locally checked-in primary sources
// only, optionally augmented with generated sources. The Outcome records
// which strategy produced the tree; a failing degraded path is a fatal error.
package build
