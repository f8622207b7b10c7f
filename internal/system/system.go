package system

import (
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
)

// InitResourceLimits raises the open file limit; parallel exports keep
// one ffmpeg pipe per scene open.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warnf("Could not read open file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warnf("Could not raise open file limit: %v", err)
	} else {
		log.Debugf("Open file limit raised to %d", rLimit.Cur)
	}
}

// Share of available memory frame buffers may use
const memoryBudget = 0.5

// RecommendedWorkers returns how many scenes can be exported at once:
// the logical CPU count, further capped by how many in-flight frames of
// frameBytes fit into half the available memory.
func RecommendedWorkers(frameBytes int) int {
	cpus, err := cpu.Counts(true)
	if err != nil || cpus < 1 {
		cpus = runtime.NumCPU()
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.WithError(err).Debug("Memory probe failed, sizing by CPU only")
		return cpus
	}

	return workersFor(cpus, vm.Available, frameBytes)
}

func workersFor(cpus int, available uint64, frameBytes int) int {
	workers := cpus
	if frameBytes > 0 {
		// Each worker holds a pooled frame plus the copy in the ffmpeg pipe
		perWorker := uint64(frameBytes) * 2
		byMem := int(float64(available) * memoryBudget / float64(perWorker))
		if byMem < workers {
			workers = byMem
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

var (
	encodersOnce sync.Once
	encodersOut  string
	filtersOnce  sync.Once
	filtersOut   string
)

func ffmpegList(flag string) string {
	out, err := exec.Command("ffmpeg", "-hide_banner", flag).CombinedOutput()
	if err != nil {
		log.WithError(err).Debugf("ffmpeg %s failed", flag)
		return ""
	}
	return string(out)
}

// GetBestH264Encoder picks a hardware encoder when ffmpeg offers one
func GetBestH264Encoder() string {
	encodersOnce.Do(func() { encodersOut = ffmpegList("-encoders") })
	return pickEncoder(encodersOut)
}

func pickEncoder(listing string) string {
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// CheckFilterSupport reports whether the local ffmpeg has the named filter
func CheckFilterSupport(name string) bool {
	filtersOnce.Do(func() { filtersOut = ffmpegList("-filters") })
	return hasFilter(filtersOut, name)
}

func hasFilter(listing, name string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		// " TSC drawtext          V->V       Draw text..."
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
