// Package domain contains the core domain entities used by the crawler.
// These types represent the business concepts (repositories and their
// identity) and are intentionally free of infrastructure concerns so they
// can be shared across the hostapi, storage and crawler packages.
package domain
