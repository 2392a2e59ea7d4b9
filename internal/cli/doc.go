// Package cli implements the command-line interface for concert-calendar.
//
// The cli package provides the Cobra-based command tree: scrape (run the venue
// extractors and store a snapshot), render (HTML page and iCalendar feed from a stored
// snapshot), update (both in one go), list (filtered, sorted view of a snapshot),
// venues (configured venues and their parsers), capture (save a rendered program page
// for later manual runs) and show (one event, optionally as an .ics file). It wires the config, fetch, orchestrator, storage, render and
// calendar packages together.
package cli
