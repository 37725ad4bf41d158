// Command scribe runs the transcript pipeline from the command line: it
// processes a transcript file against a tracker site, ranks tracked items
// for a single topic and prints stored update records.
package main
