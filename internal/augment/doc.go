// Package augment contributes generated sources to a merged tree.
//
// A Provider produces a directory of generated sources. BazelProvider runs
// the repository's configure script followed by a bazel build; NoopProvider
// is used when augmentation is disabled. Provider errors are warnings for
// the caller: the merged tree stays usable without generated sources.
package augment
