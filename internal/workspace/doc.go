// Package workspace allocates the ephemeral directories merged source trees
// are composed into.
//
// Every Create call yields a fresh, uniquely named directory
// (e.g. docmerge-20251214-122336-1234567) below the base directory. A tree
// is left in place after a successful build; Discard removes a tree whose
// composition failed.
package workspace
