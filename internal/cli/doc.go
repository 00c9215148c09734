// Package cli implements the command-line interface for gensec-template.
//
// The cli package provides the Cobra-based CLI for listing the labs published on
// the course website, generating Word or Markdown answer templates for one lab, a
// week of labs or every lab, previewing a template in the terminal, and managing
// the lab cache and config file. It coordinates the config, catalog, scraper,
// cache and generator packages.
package cli
