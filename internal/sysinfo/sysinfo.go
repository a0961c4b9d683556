// Package sysinfo answers simple host capability questions used to derive
// default server settings.
package sysinfo

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// Recommended holds server settings derived from host resources.
type Recommended struct {
	MemoryGB  uint64 `json:"memory_gb"`
	Model     string `json:"recommended_model"`
	CtxSize   uint32 `json:"recommended_ctx_size"`
	GPULayers uint32 `json:"recommended_gpu_layers"`
}

// TotalMemoryGB returns the host's total physical memory in whole GiB.
func TotalMemoryGB() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to query system memory: %w", err)
	}
	return vm.Total / (1024 * 1024 * 1024), nil
}

// RecommendedSettings derives server defaults from total host memory.
// Hosts with little memory get the small model with everything on the CPU;
// larger hosts get a bigger context window and full GPU offload.
func RecommendedSettings() (Recommended, error) {
	memGB, err := TotalMemoryGB()
	if err != nil {
		return Recommended{}, err
	}
	return recommendedForMemory(memGB), nil
}

func recommendedForMemory(memGB uint64) Recommended {
	rec := Recommended{MemoryGB: memGB}
	switch {
	case memGB < 8:
		rec.Model = "gemma-3-4b-q4"
		rec.CtxSize = 8192
		rec.GPULayers = 0
	case memGB < 16:
		rec.Model = "gemma-3-4b-q4"
		rec.CtxSize = 8192
		rec.GPULayers = 20
	case memGB < 32:
		rec.Model = "gemma-3-12b-q4"
		rec.CtxSize = 16384
		rec.GPULayers = 41
	default:
		rec.Model = "gemma-3-12b-q4"
		rec.CtxSize = 30000
		rec.GPULayers = 41
	}
	return rec
}
