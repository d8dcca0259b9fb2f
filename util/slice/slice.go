package slice

import (
	"golang.org/x/exp/slices"
)

func Filter(vals []string, cond func(string) bool) []string {
	var result = make([]string, 0, len(vals))
	for i := range vals {
		if cond(vals[i]) {
			result = append(result, vals[i])
		}
	}
	return result
}

func SortedEquals(s1, s2 []string) bool {
	return slices.Equal(s1, s2)
}

func UnsortedEquals(s1, s2 []string) bool {
	if len(s1) != len(s2) {
		return false
	}
	s1Sorted := slices.Clone(s1)
	s2Sorted := slices.Clone(s2)
	slices.Sort(s1Sorted)
	slices.Sort(s2Sorted)
	return SortedEquals(s1Sorted, s2Sorted)
}

// DifferenceRemovedAdded returns elements of a missing in b and elements of b missing in a
func DifferenceRemovedAdded(a, b []string) (removed []string, added []string) {
	var amap = make(map[string]struct{}, len(a))
	var bmap = make(map[string]struct{}, len(b))
	for _, item := range a {
		amap[item] = struct{}{}
	}
	for _, item := range b {
		if _, exists := amap[item]; !exists {
			added = append(added, item)
		}
		bmap[item] = struct{}{}
	}
	for _, item := range a {
		if _, exists := bmap[item]; !exists {
			removed = append(removed, item)
		}
	}
	return
}

// DiscardFromSlice removes elements in place, the passed slice must not be used afterwards
func DiscardFromSlice[T any](elements []T, isDiscarded func(T) bool) []T {
	var finishedIdx int
	for currentIdx := range elements {
		if !isDiscarded(elements[currentIdx]) {
			if finishedIdx != currentIdx {
				elements[finishedIdx] = elements[currentIdx]
			}
			finishedIdx++
		}
	}
	return elements[:finishedIdx]
}

// Dedup returns a sorted copy of s without duplicates
func Dedup(s []string) []string {
	res := slices.Clone(s)
	slices.Sort(res)
	return slices.Compact(res)
}
