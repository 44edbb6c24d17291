// Package workers sizes worker pools from the available CPUs.
package workers
