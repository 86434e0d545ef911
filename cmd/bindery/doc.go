// Package main hosts the bindery CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the resolution pipeline as one-shot
// commands: scanning the inbox, reviewing and editing entries, escalating to
// the LLM, and applying approved entries to the output library. It
// centralizes configuration resolution, store wiring, and structured logging
// setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
