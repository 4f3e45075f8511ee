// Package depupdate pins prefixed dependencies of every project configuration below a directory to a
// single version or commit.
package depupdate
