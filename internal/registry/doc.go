// Package registry binds constant trees to names. Bind loads a directory,
// transforms it and publishes the resulting root node; readers then resolve it
// with Lookup for the rest of the process lifetime.
//
// Hosts that prefer dependency injection create their own Registry with New.
// Hosts that need a single process-wide value use the package-level Bind and
// Lookup, which operate on Default.
package registry
