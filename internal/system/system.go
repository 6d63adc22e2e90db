package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

var (
	VideoExts = []string{".mp4", ".mov", ".webm", ".mkv", ".avi", ".m4v"}
	ImageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".pdf"}
)

// InitResourceLimits raises the open files limit: batch conversion keeps
// one source and one output open per worker.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	want := uint64(2048)
	if want > rLimit.Max {
		want = rLimit.Max
	}
	if rLimit.Cur >= want {
		return
	}
	rLimit.Cur = want
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// FindLatestMedia returns the most recently modified file in dir whose
// extension is one of exts.
func FindLatestMedia(dir string, exts []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !slices.Contains(exts, strings.ToLower(filepath.Ext(f.Name()))) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено подходящих файлов (%s)", dir, strings.Join(exts, ", "))
	}
	return latestFile, nil
}

// IsVideo reports whether path has a video extension.
func IsVideo(path string) bool {
	return slices.Contains(VideoExts, strings.ToLower(filepath.Ext(path)))
}

// CheckTool reports whether an external binary is on PATH.
func CheckTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s не найден в PATH: %w", name, err)
	}
	return nil
}

// MemoryReport summarizes host memory for the performance report.
func MemoryReport() string {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return "memory: n/a"
	}
	return fmt.Sprintf("memory: %.1f/%.1f GiB used (%.0f%%)",
		float64(vm.Used)/(1<<30), float64(vm.Total)/(1<<30), vm.UsedPercent)
}
