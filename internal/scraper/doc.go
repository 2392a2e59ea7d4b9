// Package scraper turns venue program pages into normalized concert records.
//
// Every venue is described by a Definition: where its program lives, whether it needs a
// browser, which selector signals a rendered page, and how its markup is parsed. A
// PageExtractor pairs a Definition with a fetch.Fetcher and produces the events of one
// target month. Manually captured program digests are parsed by ManualExtractor.
//
// All parsers share the same finalization: records outside the target month, records
// without a title and records without a source URL are dropped, duplicate source URLs
// are collapsed, and the result is ordered by day.
package scraper
