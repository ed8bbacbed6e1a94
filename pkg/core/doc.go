// Package core implements the archive pipeline: the on-disk binary layout,
// the pack -> compress -> encrypt -> checksum transform chain and its
// inverse, the per-entry file-type state machine (including the hardlink
// inode table), long-path framing, and integrity verification.
//
// It is the engine behind the bakctl CLI and the lib package; it has no
// knowledge of argument parsing, GUIs, or transport.
package core
