// Package util collects the small, shared helpers the graph
// package needs: a descriptor-set-layout cache and the ceil-div
// arithmetic used for dispatch-wave group counts.
package util

import (
	"github.com/goki/ki/ints"

	"github.com/llGuy/nezha/driver"
)

// nDescType is the number of driver.DescType values.
const nDescType = 5

// maxBindCount bounds the binding-count axis of the layout
// cache. Every layout the graph ever builds has exactly one
// binding (Nr=0, Len=1; see driver.DescBinding), so this only
// needs to be 1-wide in practice, but the cache keeps a small
// extra margin for future multi-binding layouts rather than
// hardcoding the assumption.
const maxBindCount = 4

// DescLayoutCache is a two-dimensional table of descriptor set
// layouts indexed by (descriptor type, binding count). Each cell
// is created at most once and reused forever, so that the graph
// never asks the driver for two structurally identical layouts.
type DescLayoutCache struct {
	gpu   driver.GPU
	cells [nDescType][maxBindCount]driver.DescSetLayout
}

// NewDescLayoutCache creates a cache bound to gpu.
func NewDescLayoutCache(gpu driver.GPU) *DescLayoutCache {
	return &DescLayoutCache{gpu: gpu}
}

// Layout returns the cached layout for a single binding of the
// given type, creating it on first request. The cache is keyed by
// type only: the stages passed on the first request for a type are
// the visibility of the layout every later request receives.
func (c *DescLayoutCache) Layout(typ driver.DescType, stages driver.Stage) driver.DescSetLayout {
	cell := &c.cells[typ][0]
	if *cell == nil {
		l, err := c.gpu.NewDescSetLayout([]driver.DescBinding{{Type: typ, Stages: stages, Nr: 0, Len: 1}})
		if err != nil {
			panic("util: descriptor set layout: " + err.Error())
		}
		*cell = l
	}
	return *cell
}

// CeilDiv returns ceil(a/b) for positive b, clamping the result
// to be no less than 1 so a zero-extent axis still dispatches a
// single group rather than none. For b <= 0 it returns MinInt(a, 1).
func CeilDiv(a, b int) int {
	if b <= 0 {
		return ints.MinInt(a, 1)
	}
	n := (a + b - 1) / b
	return ints.MaxInt(n, 1)
}
