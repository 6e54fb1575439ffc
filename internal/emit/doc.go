// Package emit hands a finished merged tree to the external reference
// documentation generator.
package emit
