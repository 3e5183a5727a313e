// Package config loads and watches intcode tool configuration.
//
// Configuration files are YAML (.yaml, .yml) or CUE (.cue). CUE files are
// unified with a built-in schema before decoding, so type and enum errors
// are reported with file positions. Both formats decode onto Default(), so
// a file only needs the fields it changes, and the result is checked with
// go-playground/validator struct tags.
//
//	cfg, err := config.NewLoader().Load("intcode.yaml")
//
// A minimal YAML file:
//
//	program: input/day07.txt
//	amplifier:
//	  mode: feedback
//	  parallelism: 4
//	store:
//	  path: runs.db
//
// Watcher reports changes to program or configuration files, debounced,
// for the run --watch command.
package config
