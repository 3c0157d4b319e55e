// Package ports defines interfaces for infrastructure operations.
// The host context and loader depend on these abstractions; adapters under
// infrastructure/ implement them.
package ports
