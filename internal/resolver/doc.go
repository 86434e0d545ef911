// Package resolver sequences the resolution pipeline for library entries:
// tag extraction, provider lookup escalation, explicit LLM disambiguation,
// and the operator lifecycle transitions, persisting after every mutation.
package resolver
