package rbac

import (
	"fmt"
)

// ResourceQuota bounds how many tasks may be admitted concurrently and how
// much CPU/memory their sandboxed children may collectively consume. The
// orchestrator's admission semaphore is the gateway-wide special case with
// MaxConcurrentTasks set from configuration.
type ResourceQuota struct {
	MaxConcurrentTasks int     `json:"max_concurrent_tasks" yaml:"max_concurrent_tasks"`
	MaxCPU             float64 `json:"max_cpu" yaml:"max_cpu"`
	MaxMemory          int64   `json:"max_memory" yaml:"max_memory"`
}

// ResourceUsage tracks current consumption against a ResourceQuota.
type ResourceUsage struct {
	ConcurrentTasks int     `json:"concurrent_tasks"`
	CPU             float64 `json:"cpu"`
	Memory          int64   `json:"memory"`
}

// NewResourceQuota creates a new resource quota.
func NewResourceQuota(maxConcurrentTasks int, cpu float64, memory int64) *ResourceQuota {
	return &ResourceQuota{
		MaxConcurrentTasks: maxConcurrentTasks,
		MaxCPU:             cpu,
		MaxMemory:          memory,
	}
}

// Check returns an error describing the first quota dimension usage
// violates, or nil if usage fits within quota.
func (q *ResourceQuota) Check(usage *ResourceUsage) error {
	if usage.ConcurrentTasks > q.MaxConcurrentTasks {
		return fmt.Errorf("concurrent task quota exceeded: %d/%d", usage.ConcurrentTasks, q.MaxConcurrentTasks)
	}
	if q.MaxCPU > 0 && usage.CPU > q.MaxCPU {
		return fmt.Errorf("CPU quota exceeded: %.2f/%.2f", usage.CPU, q.MaxCPU)
	}
	if q.MaxMemory > 0 && usage.Memory > q.MaxMemory {
		return fmt.Errorf("memory quota exceeded: %d/%d bytes", usage.Memory, q.MaxMemory)
	}
	return nil
}

// Percentage returns the percentage of quota used along each dimension.
func (q *ResourceQuota) Percentage(usage *ResourceUsage) QuotaPercentage {
	pct := QuotaPercentage{}
	if q.MaxConcurrentTasks > 0 {
		pct.ConcurrentTasks = float64(usage.ConcurrentTasks) / float64(q.MaxConcurrentTasks) * 100
	}
	if q.MaxCPU > 0 {
		pct.CPU = usage.CPU / q.MaxCPU * 100
	}
	if q.MaxMemory > 0 {
		pct.Memory = float64(usage.Memory) / float64(q.MaxMemory) * 100
	}
	return pct
}

// QuotaPercentage represents quota usage percentages.
type QuotaPercentage struct {
	ConcurrentTasks float64 `json:"concurrent_tasks"`
	CPU             float64 `json:"cpu"`
	Memory          float64 `json:"memory"`
}

// IsOverQuota reports whether any dimension exceeds 100%.
func (qp *QuotaPercentage) IsOverQuota() bool {
	return qp.ConcurrentTasks > 100 || qp.CPU > 100 || qp.Memory > 100
}

// IsNearQuota reports whether any dimension exceeds 80%.
func (qp *QuotaPercentage) IsNearQuota() bool {
	return qp.ConcurrentTasks > 80 || qp.CPU > 80 || qp.Memory > 80
}
