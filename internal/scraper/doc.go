// Package scraper fetches the course website and turns its pages into labs.
//
// Requests go through a resty client with the tool's User-Agent. Transport errors,
// timeouts and 5xx responses are retried with exponential backoff. Any 4xx
// response fails at once. Each lab page is fetched once and every section is
// parsed from the same document.
package scraper
