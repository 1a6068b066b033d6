// Package model provides the data structures shared by the pipeline package and its options.
// It defines the stage status and build result enums, the read-only stage information handed
// to pipeline options, and the option interface itself.
package model
