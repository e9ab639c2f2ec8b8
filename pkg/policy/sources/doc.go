// Package sources provides production-grade variable implementations for
// the decision engine: a YAML file watched for changes (async), a cron
// scheduled maintenance window (poll), and a coarse wall-clock reading
// (poll).
package sources
