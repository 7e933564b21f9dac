/*
Package observability exports editor activity as Prometheus metrics.

Metrics.Hooks returns domain.Hooks that can be passed to lattice.WithHooks,
so every mutation attempt is counted by operation and outcome.
*/
package observability
