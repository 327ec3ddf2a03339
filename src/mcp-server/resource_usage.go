// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
)

// ResourceUsageData is the payload behind the get_resource_usage tool.
type ResourceUsageData struct {
	Timestamp      string         `json:"timestamp"`
	MemoryUsage    map[string]any `json:"memory_usage"`
	GCStats        map[string]any `json:"gc_stats"`
	SystemInfo     map[string]any `json:"system_info"`
	DetailedMemory map[string]any `json:"detailed_memory,omitempty"`
	CRLCache       map[string]any `json:"crl_cache,omitempty"`
}

// CollectResourceUsage gathers current runtime statistics. The detailed flag
// adds allocator internals and the shared CRL cache counters, which is what
// operators ask for when a long-lived server's memory drifts.
func CollectResourceUsage(detailed bool) *ResourceUsageData {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	gcStats := map[string]any{
		"num_gc":          memStats.NumGC,
		"num_forced_gc":   memStats.NumForcedGC,
		"gc_cpu_fraction": memStats.GCCPUFraction,
		"enable_gc":       memStats.EnableGC,
		"debug_gc":        memStats.DebugGC,
	}

	memoryUsage := map[string]any{
		"heap_alloc_mb":    float64(memStats.HeapAlloc) / (1024 * 1024),
		"heap_sys_mb":      float64(memStats.HeapSys) / (1024 * 1024),
		"heap_idle_mb":     float64(memStats.HeapIdle) / (1024 * 1024),
		"heap_inuse_mb":    float64(memStats.HeapInuse) / (1024 * 1024),
		"heap_released_mb": float64(memStats.HeapReleased) / (1024 * 1024),
		"heap_objects":     memStats.HeapObjects,
		"stack_inuse_mb":   float64(memStats.StackInuse) / (1024 * 1024),
		"stack_sys_mb":     float64(memStats.StackSys) / (1024 * 1024),
		"gc_cpu_fraction":  memStats.GCCPUFraction,
	}

	systemInfo := map[string]any{
		"go_version":    runtime.Version(),
		"go_os":         runtime.GOOS,
		"go_arch":       runtime.GOARCH,
		"num_cpu":       runtime.NumCPU(),
		"num_goroutine": runtime.NumGoroutine(),
	}

	data := &ResourceUsageData{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		MemoryUsage: memoryUsage,
		GCStats:     gcStats,
		SystemInfo:  systemInfo,
	}

	if detailed {
		// PauseNs is a circular buffer holding at most the last 256 pauses;
		// NumGC keeps counting past that
		pauseCount := memStats.NumGC
		if pauseCount > uint32(len(memStats.PauseNs)) {
			pauseCount = uint32(len(memStats.PauseNs))
		}

		data.DetailedMemory = map[string]any{
			"alloc_mb":          float64(memStats.Alloc) / (1024 * 1024),
			"total_alloc_mb":    float64(memStats.TotalAlloc) / (1024 * 1024),
			"sys_mb":            float64(memStats.Sys) / (1024 * 1024),
			"lookups":           memStats.Lookups,
			"mallocs":           memStats.Mallocs,
			"frees":             memStats.Frees,
			"heap_live_objects": memStats.HeapObjects,
			"gc_pause_total_ns": memStats.PauseTotalNs,
			"gc_pause_ns":       memStats.PauseNs[:pauseCount],
			"next_gc_mb":        float64(memStats.NextGC) / (1024 * 1024),
			"last_gc":           formatLastGC(memStats.LastGC),
		}

		// CRL cache metrics from the shared revocation checker
		cacheMetrics := revoke.Default.CacheMetrics()
		cacheConfig := revoke.Default.CacheConfigSnapshot()
		data.CRLCache = map[string]any{
			"size":             cacheMetrics.Size,
			"max_size":         cacheConfig.MaxSize,
			"total_memory_mb":  float64(cacheMetrics.TotalMemory) / (1024 * 1024),
			"hits":             cacheMetrics.Hits,
			"misses":           cacheMetrics.Misses,
			"evictions":        cacheMetrics.Evictions,
			"cleanups":         cacheMetrics.Cleanups,
			"hit_rate_percent": calculateHitRate(cacheMetrics.Hits, cacheMetrics.Misses),
		}
	}

	return data
}

// formatLastGC renders the LastGC wall-clock nanosecond stamp, or "never"
// before the first collection.
func formatLastGC(ns uint64) string {
	if ns == 0 {
		return "never"
	}
	return time.Unix(0, int64(ns)).UTC().Format(time.RFC3339)
}

// FormatResourceUsageAsJSON renders the payload as indented JSON. The
// detailed sections disappear via omitempty when they were not collected.
func FormatResourceUsageAsJSON(data *ResourceUsageData) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal resource usage: %w", err)
	}

	return string(jsonData), nil
}

// metricRow pairs a display label with its payload key.
type metricRow struct {
	label string
	key   string
}

// FormatResourceUsageAsMarkdown renders the payload as a markdown report,
// one table per section.
func FormatResourceUsageAsMarkdown(data *ResourceUsageData) string {
	var buf strings.Builder

	formatMarkdownHeader(&buf, data.Timestamp)

	buf.WriteString("## System Information\n\n")
	buf.WriteString(formatMarkdownTable(data.SystemInfo, []metricRow{
		{"Go Version", "go_version"},
		{"Operating System", "go_os"},
		{"Architecture", "go_arch"},
		{"CPU Count", "num_cpu"},
		{"Goroutines", "num_goroutine"},
	}))

	buf.WriteString("## Memory Usage\n\n")
	buf.WriteString(formatMarkdownTable(data.MemoryUsage, []metricRow{
		{"Heap Allocated", "heap_alloc_mb"},
		{"Heap System", "heap_sys_mb"},
		{"Heap In Use", "heap_inuse_mb"},
		{"Heap Idle", "heap_idle_mb"},
		{"Heap Released", "heap_released_mb"},
		{"Heap Objects", "heap_objects"},
		{"Stack In Use", "stack_inuse_mb"},
		{"Stack System", "stack_sys_mb"},
	}))

	buf.WriteString("## Garbage Collection\n\n")
	buf.WriteString(formatMarkdownTable(data.GCStats, []metricRow{
		{"GC Cycles", "num_gc"},
		{"Forced GC", "num_forced_gc"},
		{"GC CPU Fraction", "gc_cpu_fraction"},
		{"GC Enabled", "enable_gc"},
		{"Debug GC", "debug_gc"},
	}))

	if data.DetailedMemory != nil {
		buf.WriteString("## Detailed Memory Statistics\n\n")
		buf.WriteString(formatMarkdownTable(data.DetailedMemory, []metricRow{
			{"Current Alloc", "alloc_mb"},
			{"Total Alloc", "total_alloc_mb"},
			{"System Memory", "sys_mb"},
			{"Lookups", "lookups"},
			{"Mallocs", "mallocs"},
			{"Frees", "frees"},
			{"Live Objects", "heap_live_objects"},
			{"GC Pause Total", "gc_pause_total_ns"},
			{"Next GC", "next_gc_mb"},
			{"Last GC", "last_gc"},
		}))
	}

	if data.CRLCache != nil {
		buf.WriteString("## CRL Cache Metrics\n\n")
		buf.WriteString(formatMarkdownTable(data.CRLCache, []metricRow{
			{"Cache Size", "size"},
			{"Max Size", "max_size"},
			{"Total Memory", "total_memory_mb"},
			{"Cache Hits", "hits"},
			{"Cache Misses", "misses"},
			{"Evictions", "evictions"},
			{"Cleanups", "cleanups"},
			{"Hit Rate", "hit_rate_percent"},
		}))
	}

	return buf.String()
}

// formatMarkdownHeader adds the report header with timestamp
func formatMarkdownHeader(buf *strings.Builder, timestamp string) {
	buf.WriteString("# Resource Usage Report\n\n")

	if parsedTime, err := time.Parse(time.RFC3339, timestamp); err == nil {
		humanTime := parsedTime.Format("January 2, 2006 at 3:04 PM MST")
		fmt.Fprintf(buf, "**Generated:** %s\n\n", humanTime)
	} else {
		fmt.Fprintf(buf, "**Generated:** %s\n\n", timestamp)
	}
}

// formatMarkdownTable renders the rows present in data as a markdown table
// using the tablewriter library. Rows whose key is absent are skipped.
func formatMarkdownTable(data map[string]any, rows []metricRow) string {
	var buf strings.Builder

	var cells [][]string
	for _, row := range rows {
		if value, ok := data[row.key]; ok {
			cells = append(cells, []string{row.label, formatValueForMarkdown(value, row.key)})
		}
	}

	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"📊 METRIC", "📈 VALUE"})
	table.Bulk(cells)
	table.Render()

	buf.WriteString("\n")
	return buf.String()
}

// formatValueForMarkdown formats a value for markdown display, attaching
// units the raw payload keys imply.
func formatValueForMarkdown(value any, key string) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		if key == "max_size" {
			return fmt.Sprintf("%d entries", v)
		}
		return fmt.Sprintf("%d", v)
	case int64:
		if key == "size" || key == "max_size" {
			return fmt.Sprintf("%d entries", v)
		}
		return fmt.Sprintf("%d", v)
	case uint32:
		return fmt.Sprintf("%d", v)
	case uint64:
		if key == "gc_pause_total_ns" {
			return fmt.Sprintf("%.2f ms", float64(v)/1e6)
		}
		return fmt.Sprintf("%d", v)
	case float64:
		if key == "gc_cpu_fraction" || key == "hit_rate_percent" {
			return fmt.Sprintf("%.2f%%", v)
		}
		if strings.Contains(key, "mb") || strings.Contains(key, "memory") {
			return fmt.Sprintf("%.2f MB", v)
		}
		return fmt.Sprintf("%.2f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// calculateHitRate calculates the cache hit rate as a percentage
func calculateHitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}
