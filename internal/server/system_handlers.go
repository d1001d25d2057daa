package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves health and host-resource endpoints
type SystemHandlers struct {
	dataDir string
	log     zerolog.Logger
}

// NewSystemHandlers creates the system handlers
func NewSystemHandlers(dataDir string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		dataDir: dataDir,
		log:     log.With().Str("handler", "system").Logger(),
	}
}

// SystemInfo is the /api/system/info payload
type SystemInfo struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskFreeMB    uint64  `json:"disk_free_mb"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"go_version"`
	ServerTimeUTC string  `json:"server_time_utc"`
}

// HandleHealth returns a liveness response with uptime
// GET /health
func (h *SystemHandlers) HandleHealth(startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		})
	}
}

// HandleSystemInfo returns host resource usage
// GET /api/system/info
func (h *SystemHandlers) HandleSystemInfo(w http.ResponseWriter, r *http.Request) {
	info := SystemInfo{
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
		ServerTimeUTC: time.Now().UTC().Format(time.RFC3339),
	}

	// 100ms sample keeps the endpoint responsive for a polling UI
	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		info.CPUPercent = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		info.MemoryPercent = memStat.UsedPercent
		info.MemoryUsedMB = memStat.Used / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	if diskStat, err := disk.Usage(h.dataDir); err == nil {
		info.DiskPercent = diskStat.UsedPercent
		info.DiskFreeMB = diskStat.Free / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to read disk usage")
	}

	h.writeJSON(w, http.StatusOK, info)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
