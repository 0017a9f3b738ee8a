// Package main hosts the promocut CLI entrypoint and command graph.
//
// The Cobra command tree drives the six-step promo pipeline (`run`), the
// multi-source remix (`remix`), artifact inspection (`show`), configuration
// scaffolding (`config`) and environment checks (`doctor`). Configuration
// resolution, .env loading and logger setup live here so subcommands only
// wire flags into the workflow package.
package main
