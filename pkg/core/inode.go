package core

import "github.com/rs/zerolog"

// inodeTable maps an inode id to the relative path of the first entry that
// carried its content within one pack call. It is pack-scoped: a Packer
// constructs a fresh inodeTable for every Pack call and discards it
// afterward, never holding it as package- or Packer-level state (spec.md
// §5, §9 — "encapsulate it as a pack-scoped object").
type inodeTable struct {
	canonical map[uint64]string
	log       *zerolog.Logger
}

func newInodeTable(log *zerolog.Logger) *inodeTable {
	return &inodeTable{canonical: make(map[uint64]string), log: log}
}

// Record registers relPath as an occurrence of ino. It returns ("", true)
// the first time an inode is seen (the caller is the canonical
// content-carrier and must write its bytes), or (canonicalPath, false) on
// every subsequent occurrence (the caller must write only a pointer).
func (t *inodeTable) Record(ino uint64, relPath string) (canonicalPath string, isCarrier bool) {
	if existing, ok := t.canonical[ino]; ok {
		return existing, false
	}
	t.canonical[ino] = relPath
	if t.log != nil {
		t.log.Debug().
			Uint64("ino", ino).
			Str("path", relPath).
			Str("fingerprint", digestFingerprint(relPath, ino).String()).
			Msg("recorded hardlink content carrier")
	}
	return "", true
}
