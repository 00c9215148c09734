// Package cache persists scraped lab data between runs.
//
// Entries live in a single bbolt database (cache.db) inside the cache directory.
// Each value is stored as a JSON envelope holding the time it was written and the
// time it expires. Expired entries are treated as missing and removed on read.
// The lab index is stored under "lab_index" and each fully scraped lab under
// "lab:<id>".
package cache
