// Package fsprobe detects a source's filesystem family from its boot
// sector or superblock and, for recognized families, extracts the
// sorted, disjoint list of free byte ranges the Orchestrator should
// treat as the scan domain in forensic mode.
package fsprobe

import (
	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/fsprobe/exfat"
	"github.com/arnesen/recoverd/fsprobe/ext"
	"github.com/arnesen/recoverd/fsprobe/fat"
	"github.com/arnesen/recoverd/fsprobe/ntfs"
	"github.com/arnesen/recoverd/session"
)

// Prober detects one filesystem family from a small header read and, on
// success, derives its Filesystem Info. A failed detection returns
// ok=false so the Orchestrator can fall back to brute-force mode.
type Prober interface {
	Name() string
	Probe(r *block.Reader) (session.FilesystemInfo, bool, error)
}

// Probers is tried in order; the first to report a detection wins.
var Probers = []Prober{
	exfatProber{},
	ntfsProber{},
	fatProber{},
	extProber{},
}

// Detect runs each registered Prober in turn and returns the first
// successful Filesystem Info, or ok=false when none recognized the
// source. Only exFAT, NTFS, FAT and ext are detected; nothing here
// identifies XFS, APFS, HFS+, Btrfs, F2FS, ReiserFS, UDF, ISO 9660, GPT
// or MBR, so such sources also yield ok=false.
func Detect(r *block.Reader) (session.FilesystemInfo, bool, error) {
	for _, p := range Probers {
		info, ok, err := p.Probe(r)
		if err != nil {
			continue
		}
		if ok {
			return info, true, nil
		}
	}
	return session.FilesystemInfo{}, false, nil
}

type exfatProber struct{}

func (exfatProber) Name() string { return "exfat" }
func (exfatProber) Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	return exfat.Probe(r)
}

type ntfsProber struct{}

func (ntfsProber) Name() string { return "ntfs" }
func (ntfsProber) Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	return ntfs.Probe(r)
}

type fatProber struct{}

func (fatProber) Name() string { return "fat" }
func (fatProber) Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	return fat.Probe(r)
}

type extProber struct{}

func (extProber) Name() string { return "ext" }
func (extProber) Probe(r *block.Reader) (session.FilesystemInfo, bool, error) {
	return ext.Probe(r)
}
