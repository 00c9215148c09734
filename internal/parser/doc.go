// Package parser extracts labs, sections and deliverable questions from course website HTML.
//
// The course site is built from codelab pages. The index page lists labs as cards and each
// lab page holds every section as a google-codelab-step element. Older layouts are handled
// through selector fallbacks: sidebar step lists, drawer navigation and plain instruction
// blocks. Deliverables are the bold items of a section's bullet lists; a keyword heuristic
// can classify plain bullets when a section marks nothing in bold.
package parser
