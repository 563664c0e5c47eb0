// Package store is the value-store collaborator consumed before a run: point
// values, JSON documents and timestamped series points behind one interface,
// with a Badger-backed implementation and a Hydrator that resolves declared
// variable sets into the map handed to the engine.
package store
