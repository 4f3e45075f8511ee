// Package pxtconfig reads and rewrites pxt.json project configuration documents.
//
// Document wraps the raw JSON so that rewrites replace individual values in
// place: unknown fields and key order survive every edit, and rendered output
// is indented with four spaces and terminated by a newline. DependencyReference
// models the "scheme:location#ref" pins stored under "dependencies".
package pxtconfig
