// Package storage provides JSON-based persistence for run snapshots.
//
// Every run writes its snapshot twice: a per-period file (snapshot_YYYY-MM.json) and the
// latest snapshot (snapshot.json) that the render and list commands read by default.
// Each write fully replaces the prior file through a temporary file and a rename.
// The default storage location is ~/.local/share/concert-calendar/.
package storage
