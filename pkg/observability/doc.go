// Package observability provides the application logger and Prometheus
// metrics. The audit trail is separate (see pkg/audit): this package is
// operational logging, not the record of authorization decisions.
package observability
