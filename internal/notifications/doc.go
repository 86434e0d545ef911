// Package notifications delivers resolution milestones via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. One method per milestone keeps messages consistent so resolver
// code never duplicates HTTP glue.
//
// Extend this package if you need alternative transports; the resolver
// depends only on the simple Service interface.
package notifications
