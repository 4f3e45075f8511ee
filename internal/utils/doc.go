// Package utils holds the configuration loader and logger factory shared by the fwd-scripts commands.
package utils
