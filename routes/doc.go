// Package routes maps reader paths onto cached resources.
//
// A Resolver turns a path such as "/manga/berserk/chapter/12" into a
// Resource with a cache kind and key, loads it through the cache store (the
// homepage through the hybrid memory + session tier) and answers the warm
// checks used by navigation. Mutations decorates a DataSource so that every
// successful write invalidates the cache entries it affects.
package routes
