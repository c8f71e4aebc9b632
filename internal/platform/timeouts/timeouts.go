// Package timeouts defines shared timeout constants used across PREreview.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 10 * time.Second

// ExternalRequest caps a single call to an external API (ORCID, Slack,
// Zenodo, Crossref, DataCite, OpenAlex).
const ExternalRequest = 10 * time.Second

// ZenodoPublish caps the multi-call deposit flow used when publishing.
const ZenodoPublish = 30 * time.Second
