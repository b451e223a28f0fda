// Package health probes the storage medium behind a scan target and
// maps what it learns onto a recovery-confidence estimate, gathering
// partition and mount information through gopsutil the way the
// reference disk-health collectors do, then falling back to the
// sysfs rotational/discard knobs on Linux for the SSD/TRIM distinction
// gopsutil itself doesn't expose.
package health

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/arnesen/recoverd/session"
)

// Probe inspects devicePath (a block device or a plain disk-image
// file) and returns its Drive Health assessment. It never returns an
// error that should abort a scan: an unrecognized medium degrades to
// MediaUnknown / ConfidenceUnknown rather than failing.
func Probe(devicePath string) session.DriveHealth {
	if isRegularFile(devicePath) {
		return session.DriveHealth{
			MediaClass:         session.MediaDiskImage,
			RecoveryConfidence: session.ConfidenceHigh,
		}
	}

	partitions, err := disk.Partitions(true)
	if err != nil {
		return session.DriveHealth{MediaClass: session.MediaUnknown, RecoveryConfidence: session.ConfidenceUnknown}
	}

	var match *disk.PartitionStat
	for i := range partitions {
		if partitions[i].Device == devicePath || strings.HasPrefix(devicePath, partitions[i].Device) {
			match = &partitions[i]
			break
		}
	}
	if match == nil {
		return session.DriveHealth{MediaClass: session.MediaUnknown, RecoveryConfidence: session.ConfidenceUnknown}
	}

	sysName := baseDeviceName(match.Device)
	rotational, rotKnown := readRotational(sysName)
	external := isRemovable(sysName)
	trimSupported, trimEnabled := readTrimState(sysName, match.Opts)

	health := session.DriveHealth{
		External:      external,
		TrimSupported: trimSupported,
		TrimEnabled:   trimEnabled,
	}

	switch {
	case strings.HasPrefix(sysName, "mmcblk"):
		health.MediaClass = session.MediaEMMC
		health.ConnectionFamily = "mmc"
	case strings.HasPrefix(sysName, "nvme"):
		health.MediaClass = session.MediaNVMeSSD
		health.ConnectionFamily = "nvme"
	case external && looksLikeFlashMedia(sysName):
		health.MediaClass = session.MediaSD
		health.ConnectionFamily = "usb"
	case external:
		health.MediaClass = session.MediaSSD
		health.ConnectionFamily = "usb"
	case rotKnown && rotational:
		health.MediaClass = session.MediaHDD
		health.ConnectionFamily = "sata"
	case rotKnown && !rotational:
		health.MediaClass = session.MediaSSD
		health.ConnectionFamily = "sata"
	default:
		health.MediaClass = session.MediaUnknown
	}

	health.RecoveryConfidence, health.Warning = classify(health)
	return health
}

// classify implements spec's confidence table for each media class.
func classify(h session.DriveHealth) (session.Confidence, string) {
	switch h.MediaClass {
	case session.MediaHDD:
		return session.ConfidenceHigh, ""
	case session.MediaSSD, session.MediaPCIeSSD, session.MediaNVMeSSD:
		if h.External {
			return session.ConfidenceMedium, "external SSD enclosure: TRIM pass-through is unlikely regardless of host TRIM state"
		}
		if h.TrimEnabled {
			return session.ConfidenceLow, "internal SSD with TRIM enabled: the device controller may have already erased freed blocks"
		}
		return session.ConfidenceMedium, ""
	case session.MediaUSB, session.MediaSD:
		return session.ConfidenceMediumHigh, ""
	case session.MediaEMMC:
		if h.TrimEnabled {
			return session.ConfidenceLow, "eMMC with DISCARD enabled: freed blocks may already be erased"
		}
		return session.ConfidenceMedium, ""
	case session.MediaOptical, session.MediaVirtual, session.MediaDiskImage:
		return session.ConfidenceHigh, ""
	default:
		return session.ConfidenceUnknown, ""
	}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func baseDeviceName(devPath string) string {
	name := filepath.Base(devPath)
	// strip a trailing partition suffix (sda1 -> sda, nvme0n1p1 -> nvme0n1)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] < '0' || name[i] > '9' {
			break
		}
		if i > 0 && name[i-1] == 'p' && strings.HasPrefix(name, "nvme") {
			return name[:i-1]
		}
	}
	trimmed := strings.TrimRight(name, "0123456789")
	if strings.HasPrefix(name, "nvme") {
		return name
	}
	return trimmed
}

func readRotational(sysName string) (rotational bool, known bool) {
	raw, err := os.ReadFile(filepath.Join("/sys/block", sysName, "queue", "rotational"))
	if err != nil {
		return false, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return false, false
	}
	return v == 1, true
}

func isRemovable(sysName string) bool {
	raw, err := os.ReadFile(filepath.Join("/sys/block", sysName, "removable"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(raw)) == "1"
}

func looksLikeFlashMedia(sysName string) bool {
	return strings.HasPrefix(sysName, "mmcblk") || strings.HasPrefix(sysName, "mmc")
}

func readTrimState(sysName string, mountOpts []string) (supported, enabled bool) {
	raw, err := os.ReadFile(filepath.Join("/sys/block", sysName, "queue", "discard_max_bytes"))
	if err == nil {
		if v, convErr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); convErr == nil && v > 0 {
			supported = true
		}
	}
	for _, opt := range mountOpts {
		if opt == "discard" {
			enabled = true
		}
	}
	return supported, enabled
}
