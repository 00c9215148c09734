// Package catalog answers lab lookups from the cache, falling back to the course website.
//
// A Catalog sits between the CLI and the scraper. Cached data is used while it is
// fresh unless a refresh is requested, and anything scraped is written back.
// Cache failures are logged and never stop a lookup.
package catalog
