// Package lib re-exports pkg/core's public API for callers that prefer a
// flat import rather than reaching into pkg/core directly, matching the
// original agcp lib package's role as a thin compatibility surface.
package lib

import (
	"context"

	"github.com/asnlsxx/bakctl/pkg/core"
)

// Re-exported types.
type (
	Packer       = core.Packer
	Stats        = core.Stats
	ListEntry    = core.ListEntry
	Kind         = core.Kind
	Metadata     = core.Metadata
	Predicate    = core.Predicate
	PackOption   = core.PackOption
	UnpackOption = core.UnpackOption
	ListOption   = core.ListOption
)

// Re-exported Kind constants.
const (
	KindRegular   = core.KindRegular
	KindDirectory = core.KindDirectory
	KindSymlink   = core.KindSymlink
	KindFifo      = core.KindFifo
)

// Re-exported sentinel errors.
var (
	ErrBadArchive       = core.ErrBadArchive
	ErrBadKeyOrCorrupt  = core.ErrBadKeyOrCorrupt
	ErrChecksumMismatch = core.ErrChecksumMismatch
)

// Re-exported option constructors.
var (
	WithCompress        = core.WithCompress
	WithEncrypt         = core.WithEncrypt
	WithComment         = core.WithComment
	WithPredicate       = core.WithPredicate
	WithLogger          = core.WithLogger
	WithProgress        = core.WithProgress
	WithPassword        = core.WithPassword
	WithRestoreMetadata = core.WithRestoreMetadata
	WithUnpackLogger    = core.WithUnpackLogger
	WithUnpackProgress  = core.WithUnpackProgress
	WithListPassword    = core.WithListPassword
	WithListLogger      = core.WithListLogger
)

// NewPacker returns a ready-to-use Packer.
func NewPacker() *Packer { return core.NewPacker() }

// Pack is a wrapper around (*core.Packer).Pack using a fresh Packer.
func Pack(ctx context.Context, sourceRoot, targetArchive string, opts ...PackOption) (Stats, error) {
	return NewPacker().Pack(ctx, sourceRoot, targetArchive, opts...)
}

// Unpack is a wrapper around (*core.Packer).Unpack using a fresh Packer.
func Unpack(ctx context.Context, archive, restoreRoot string, opts ...UnpackOption) (Stats, error) {
	return NewPacker().Unpack(ctx, archive, restoreRoot, opts...)
}

// Verify is a wrapper around (*core.Packer).Verify using a fresh Packer.
func Verify(ctx context.Context, archive string) error {
	return NewPacker().Verify(ctx, archive)
}

// List is a wrapper around (*core.Packer).List using a fresh Packer.
func List(ctx context.Context, archive string, fn func(ListEntry) error, opts ...ListOption) error {
	return NewPacker().List(ctx, archive, fn, opts...)
}
