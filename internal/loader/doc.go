// Package loader discovers the YAML constant files of a directory, renders
// them as templates against the current run mode, parses them and merges the
// results into a single raw mapping. The merge is shallow: a top-level key
// defined by a later file replaces the one defined by an earlier file.
package loader
