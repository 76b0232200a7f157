// Package sysstats periodically snapshots process and system resource
// counters and derives per-interval rates. The OS stat interface (gopsutil)
// is the external collaborator; sampling runs on its own timer, independent
// of request traffic.
package sysstats

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/okonma/pressgate/internal/logger"
	"github.com/okonma/pressgate/internal/metrics"
	"github.com/okonma/pressgate/internal/stats"
)

// Snapshot is one sampling of resource counters. Rate fields are derived
// from the delta since the previous sample.
type Snapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	CPUPercent      float64   `json:"cpu_percent"`
	MemoryRSSBytes  uint64    `json:"memory_rss_bytes"`
	MemoryPercent   float64   `json:"memory_percent"`
	Threads         int32     `json:"threads"`
	Goroutines      int       `json:"goroutines"`
	NetSentPerSec   float64   `json:"net_bytes_sent_per_sec"`
	NetRecvPerSec   float64   `json:"net_bytes_recv_per_sec"`
	DiskReadPerSec  float64   `json:"disk_read_bytes_per_sec"`
	DiskWritePerSec float64   `json:"disk_write_bytes_per_sec"`
}

// Publisher receives sampler events; satisfied by the live hub.
type Publisher interface {
	Publish(eventType string, payload any)
}

// Sampler snapshots resource counters on a fixed period and publishes a
// "metrics" event per sample.
type Sampler struct {
	interval time.Duration
	hub      Publisher
	proc     *process.Process

	stop chan struct{}
	once sync.Once

	mu   sync.RWMutex
	last Snapshot

	prevAt        time.Time
	prevNetSent   uint64
	prevNetRecv   uint64
	prevDiskRead  uint64
	prevDiskWrite uint64
}

// NewSampler creates a sampler publishing to hub every interval.
func NewSampler(interval time.Duration, hub Publisher) *Sampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warn("Process stats unavailable", "error", err)
	}
	return &Sampler{
		interval: interval,
		hub:      hub,
		proc:     proc,
		stop:     make(chan struct{}),
	}
}

// Start begins the sampling loop. It returns when ctx is cancelled or Stop
// is called.
func (s *Sampler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Prime the cumulative counters so the first published sample has
	// meaningful rates.
	s.sample(false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.sample(true)
		}
	}
}

// Stop halts the sampling loop. Idempotent.
func (s *Sampler) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Current returns the most recent snapshot.
func (s *Sampler) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Probe returns an on-demand process resource reading for request records.
func (s *Sampler) Probe() stats.ResourceUsage {
	var usage stats.ResourceUsage
	if s.proc == nil {
		return usage
	}
	if pct, err := s.proc.CPUPercent(); err == nil {
		usage.CPUPercent = pct
	}
	if mi, err := s.proc.MemoryInfo(); err == nil {
		usage.RSSBytes = int64(mi.RSS)
	}
	return usage
}

func (s *Sampler) sample(publish bool) {
	now := time.Now()
	snap := Snapshot{
		Timestamp:  now,
		Goroutines: runtime.NumGoroutine(),
	}

	// Interval 0 reports utilization since the previous call, which matches
	// the sampling cadence without blocking the loop.
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		snap.CPUPercent = pcts[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemoryPercent = vm.UsedPercent
	}

	if s.proc != nil {
		if mi, err := s.proc.MemoryInfo(); err == nil {
			snap.MemoryRSSBytes = mi.RSS
		}
		if threads, err := s.proc.NumThreads(); err == nil {
			snap.Threads = threads
		}
	}

	var netSent, netRecv uint64
	if counters, err := psnet.IOCounters(false); err == nil && len(counters) > 0 {
		netSent = counters[0].BytesSent
		netRecv = counters[0].BytesRecv
	}

	var diskRead, diskWrite uint64
	if counters, err := disk.IOCounters(); err == nil {
		for _, c := range counters {
			diskRead += c.ReadBytes
			diskWrite += c.WriteBytes
		}
	}

	if !s.prevAt.IsZero() {
		elapsed := now.Sub(s.prevAt).Seconds()
		if elapsed > 0 {
			snap.NetSentPerSec = rate(netSent, s.prevNetSent, elapsed)
			snap.NetRecvPerSec = rate(netRecv, s.prevNetRecv, elapsed)
			snap.DiskReadPerSec = rate(diskRead, s.prevDiskRead, elapsed)
			snap.DiskWritePerSec = rate(diskWrite, s.prevDiskWrite, elapsed)
		}
	}

	s.prevAt = now
	s.prevNetSent = netSent
	s.prevNetRecv = netRecv
	s.prevDiskRead = diskRead
	s.prevDiskWrite = diskWrite

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	metrics.ProcessCPUPercent.Set(snap.CPUPercent)
	metrics.ProcessMemoryBytes.Set(float64(snap.MemoryRSSBytes))
	metrics.ProcessThreads.Set(float64(snap.Threads))
	metrics.NetworkBytesSentPerSec.Set(snap.NetSentPerSec)
	metrics.NetworkBytesRecvPerSec.Set(snap.NetRecvPerSec)
	metrics.DiskReadBytesPerSec.Set(snap.DiskReadPerSec)
	metrics.DiskWriteBytesPerSec.Set(snap.DiskWritePerSec)

	if publish && s.hub != nil {
		s.hub.Publish("metrics", snap)
	}
}

// rate guards against counter resets (e.g. interface bounce) going negative.
func rate(cur, prev uint64, elapsed float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsed
}
