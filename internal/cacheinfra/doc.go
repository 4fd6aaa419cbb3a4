// Package cacheinfra holds the concrete session storages behind the hybrid
// cache tier: a sturdyc-backed in-process session and a SQLite-backed one.
package cacheinfra
