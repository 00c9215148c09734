// Package lab provides the data model for course labs scraped from the course website.
//
// A Lab is made of numbered Sections, each holding the deliverable Questions a student
// has to answer. An Index lists every lab published on the course page along with the
// time it was scraped. All types encode to JSON with snake_case keys so they can be
// cached on disk and emitted by the CLI.
package lab
