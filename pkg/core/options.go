package core

import (
	"github.com/rs/zerolog"

	"github.com/asnlsxx/bakctl/pkg/progress"
)

// Predicate decides whether an entry at relPath, of the given Kind, should
// be included in the archive when packing. List does not apply it. The core
// calls it once per candidate entry (spec.md §6); it is the only collaborator
// hook the core consumes rather than provides.
type Predicate func(relPath string, kind Kind) bool

// includeAll is the default Predicate: every entry is included.
func includeAll(string, Kind) bool { return true }

type options struct {
	compress        bool
	encrypt         bool
	password        []byte
	comment         string
	predicate       Predicate
	restoreMetadata bool
	log             zerolog.Logger
	tracker         *progress.Tracker
}

func defaultOptions() options {
	return options{
		predicate:       includeAll,
		restoreMetadata: true,
		log:             zerolog.Nop(),
	}
}

// PackOption configures a Pack call.
type PackOption func(*options)

// UnpackOption configures an Unpack call.
type UnpackOption func(*options)

// ListOption configures a List call.
type ListOption func(*options)

// WithCompress turns on LZW compression of the archive body.
func WithCompress(enabled bool) PackOption {
	return func(o *options) { o.compress = enabled }
}

// WithEncrypt turns on AES-256-CBC encryption of the archive body, keyed by
// password. Pack rejects an empty password when encrypt is requested.
func WithEncrypt(enabled bool, password string) PackOption {
	return func(o *options) {
		o.encrypt = enabled
		o.password = []byte(password)
	}
}

// WithComment sets the archive header's free-text comment, truncated to
// 256 bytes. It is never interpreted by the core.
func WithComment(comment string) PackOption {
	return func(o *options) { o.comment = comment }
}

// WithPredicate overrides the default include-everything Predicate.
func WithPredicate(p Predicate) PackOption {
	return func(o *options) { o.predicate = p }
}

// WithLogger attaches a logger to a Pack call (Unpack and List take
// WithUnpackLogger and WithListLogger; Verify does not log). The default is
// a disabled logger, so library use without a caller-supplied logger is
// silent.
func WithLogger(log zerolog.Logger) PackOption {
	return func(o *options) { o.log = log }
}

// WithProgress attaches a progress.Tracker that receives byte counts as
// entry content is packed.
func WithProgress(t *progress.Tracker) PackOption {
	return func(o *options) { o.tracker = t }
}

// WithPassword supplies the decryption password for Unpack.
func WithPassword(password string) UnpackOption {
	return func(o *options) { o.password = []byte(password) }
}

// WithRestoreMetadata controls whether Unpack applies permissions,
// ownership, and timestamps to restored paths (spec.md §4.5/§4.8). Default
// is true.
func WithRestoreMetadata(enabled bool) UnpackOption {
	return func(o *options) { o.restoreMetadata = enabled }
}

// WithUnpackLogger attaches a logger to an Unpack call.
func WithUnpackLogger(log zerolog.Logger) UnpackOption {
	return func(o *options) { o.log = log }
}

// WithUnpackProgress attaches a progress.Tracker to an Unpack call.
func WithUnpackProgress(t *progress.Tracker) UnpackOption {
	return func(o *options) { o.tracker = t }
}

// WithListPassword supplies the decryption password for List, needed only
// when the archive is encrypted.
func WithListPassword(password string) ListOption {
	return func(o *options) { o.password = []byte(password) }
}

// WithListLogger attaches a logger to a List call.
func WithListLogger(log zerolog.Logger) ListOption {
	return func(o *options) { o.log = log }
}
