/*
Package observability provides Prometheus instrumentation for the Wayfarer engine.

It translates lifecycle hook events (visits settling, merge passes absorbing
duplicate records) into counters and gauges, and exposes them through any
prometheus.Registerer for scraping via promhttp.
*/
package observability
