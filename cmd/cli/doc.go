// Package cli assembles the fwd-scripts command-line interface: the Cobra command hierarchy, layered
// configuration loading and the diagnostic logger shared by the run-tests and update-deps commands.
package cli
