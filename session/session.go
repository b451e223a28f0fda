// Package session defines the shared data model that flows between the
// Orchestrator, Carvers, Validators, Damage Analyzer, and Saver: the
// Recovered File record and the Scan Session that aggregates a run.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arnesen/recoverd/damage"
	"github.com/arnesen/recoverd/signature"
	"github.com/arnesen/recoverd/validate"
)

// Provenance distinguishes a candidate discovered by raw carving from one
// returned by an external deleted-entry adapter.
type Provenance int

const (
	Carved Provenance = iota
	Filesystem
)

func (p Provenance) String() string {
	if p == Filesystem {
		return "Filesystem"
	}
	return "Carved"
}

// RecoveredFile is one candidate artifact produced during a scan.
type RecoveredFile struct {
	ID         uuid.UUID
	Signature  signature.Signature
	Offset     int64
	Size       int64
	SourcePath string
	Fingerprint string // hex MD5 of the full bytes, filled in once materialized

	Provenance Provenance
	// Populated only when Provenance == Filesystem.
	OriginalName string
	OriginalPath string
	InodeRef     string

	Validation validate.Result
	Damage     *damage.Report
	Repair     *RepairResult

	Persisted        bool
	DestinationPath  string
}

// RepairResult mirrors repair.Result without importing the repair
// package directly, so session stays a leaf the higher packages import.
type RepairResult struct {
	Success       bool
	Before        damage.Report
	After         damage.Report
	BeforeFingerprint string
	AfterFingerprint  string
	ActionsRun    []string
	ActionsFailed []string
}

// Mode is the scan domain strategy chosen by the Orchestrator.
type Mode int

const (
	ModeBruteForce Mode = iota
	ModeForensic
)

func (m Mode) String() string {
	if m == ModeForensic {
		return "forensic"
	}
	return "brute-force"
}

// FilesystemInfo is produced by a Filesystem Prober.
type FilesystemInfo struct {
	Family            string
	ClusterSize       int64
	TotalClusters     int64
	FreeClusters      int64
	FreeRanges        []Range
	TotalFreeBytes    int64
}

// Range is an inclusive-start, exclusive-end byte range.
type Range struct {
	Start int64
	End   int64
}

// MediaClass enumerates the coarse type of storage medium.
type MediaClass string

const (
	MediaHDD        MediaClass = "HDD"
	MediaSSD        MediaClass = "SSD"
	MediaNVMeSSD    MediaClass = "NVMe-SSD"
	MediaPCIeSSD    MediaClass = "PCIe-SSD"
	MediaUSB        MediaClass = "USB"
	MediaSD         MediaClass = "SD"
	MediaEMMC       MediaClass = "eMMC"
	MediaOptical    MediaClass = "Optical"
	MediaVirtual    MediaClass = "Virtual"
	MediaDiskImage  MediaClass = "Disk-Image"
	MediaUnknown    MediaClass = "Unknown"
)

// Confidence is the Drive Health Prober's recovery-odds estimate.
type Confidence string

const (
	ConfidenceNone       Confidence = "None"
	ConfidenceLow        Confidence = "Low"
	ConfidenceMedium     Confidence = "Medium"
	ConfidenceMediumHigh Confidence = "Medium-High"
	ConfidenceHigh       Confidence = "High"
	ConfidenceUnknown    Confidence = "Unknown"
)

// DriveHealth is produced by the Drive Health Prober.
type DriveHealth struct {
	MediaClass        MediaClass
	External          bool
	ConnectionFamily  string
	TrimSupported     bool
	TrimEnabled       bool
	RecoveryConfidence Confidence
	Warning           string
}

// Progress is delivered to the on_progress callback during a scan.
type Progress struct {
	BytesScanned   int64
	TotalBytes     int64
	FilesFound     int
	EmptyBytesSkipped int64
}

// Callbacks lets a caller observe a running scan without polling.
type Callbacks struct {
	OnProgress     func(Progress)
	OnFileFound    func(*RecoveredFile)
	OnScanComplete func(*Scan)
}

// Scan aggregates everything produced by one run of the Orchestrator.
type Scan struct {
	mu sync.Mutex

	ID              uuid.UUID
	DevicePath      string
	Categories      []signature.Category
	StartTime       time.Time
	EndTime         time.Time
	Mode            Mode
	FilesystemFamily string

	BytesScanned      int64
	EmptyBytesSkipped int64
	Mmapped           bool

	Files     []*RecoveredFile
	Cancelled bool
}

// NewScan creates an empty session for a device path.
func NewScan(devicePath string, categories []signature.Category) *Scan {
	return &Scan{
		ID:         uuid.New(),
		DevicePath: devicePath,
		Categories: categories,
		StartTime:  time.Now(),
	}
}

// AddFile appends a recovered file under the session's lock.
func (s *Scan) AddFile(f *RecoveredFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Files = append(s.Files, f)
}

// DropOffsets removes any registered file whose offset is in drop, used
// after a parallel scan's per-worker Dedup Trackers are merged into the
// coordinator's: a file a worker accepted locally can still lose to a
// cross-worker collision once all trackers are reconciled.
func (s *Scan) DropOffsets(drop map[int64]bool) {
	if len(drop) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.Files[:0]
	for _, f := range s.Files {
		if !drop[f.Offset] {
			kept = append(kept, f)
		}
	}
	s.Files = kept
}

// AddBytesScanned accumulates the running byte counter under lock, safe
// to call from multiple worker goroutines.
func (s *Scan) AddBytesScanned(n int64) {
	s.mu.Lock()
	s.BytesScanned += n
	s.mu.Unlock()
}

// AddEmptyBytesSkipped accumulates the skipped-empty-chunk counter.
func (s *Scan) AddEmptyBytesSkipped(n int64) {
	s.mu.Lock()
	s.EmptyBytesSkipped += n
	s.mu.Unlock()
}

// Cancel flips the cooperative cancellation flag checked at every chunk.
func (s *Scan) Cancel() {
	s.mu.Lock()
	s.Cancelled = true
	s.mu.Unlock()
}

// IsCancelled reports the cooperative cancellation flag.
func (s *Scan) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Cancelled
}

// FileCount returns the current number of registered files.
func (s *Scan) FileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Files)
}
