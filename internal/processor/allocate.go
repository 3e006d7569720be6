package processor

import (
	"math"
	"sort"

	"github.com/sevigo/repodigest/internal/core"
)

// share is the working state of one optional category across the largest-remainder pass.
type share struct {
	name        string
	contentSize int64
	weight      float64
	rawShare    float64
	floor       int64
	frac        float64
}

func optionalField(e *core.ExtractedRepoMarkdown, name string) *string {
	switch name {
	case "documentation":
		return e.Documentation
	case "tests":
		return e.Tests
	case "build_and_package_data":
		return e.BuildAndPackage
	case "code":
		return e.Code
	}
	return nil
}

func setOptionalField(e *core.ExtractedRepoMarkdown, name, body string) {
	switch name {
	case "documentation":
		e.Documentation = &body
	case "tests":
		e.Tests = &body
	case "build_and_package_data":
		e.BuildAndPackage = &body
	case "code":
		e.Code = &body
	}
}

// allocateOptional apportions available bytes across the four weighted optional
// categories using a largest-remainder (Hamilton) method: a floor share per category
// (never more than the category's actual content size), then the leftover bytes handed
// out one at a time to the category with the largest fractional remainder, alphabetical
// name breaking ties. Categories already at or under their floor share are excluded from
// subsequent tightening so their slack doesn't starve the others.
func allocateOptional(e *core.ExtractedRepoMarkdown, weights map[string]float64, available int64) map[string]int64 {
	allocations := make(map[string]int64, len(optionalCategories))
	if available <= 0 {
		for _, name := range optionalCategories {
			allocations[name] = 0
		}
		return allocations
	}

	var totalWeight float64
	shares := make(map[string]*share, len(optionalCategories))
	for _, name := range optionalCategories {
		content := strOf(optionalField(e, name))
		w := weights[name]
		shares[name] = &share{name: name, contentSize: int64(len(content)), weight: w}
		totalWeight += w
	}

	remaining := available
	active := make([]string, 0, len(optionalCategories))
	for _, name := range optionalCategories {
		active = append(active, name)
	}

	// Iteratively compute shares, capping any category whose raw share exceeds its actual
	// content size at the content size, and redistributing the freed budget among the
	// remaining categories. This converges because each pass either removes a category or
	// terminates.
	for {
		if totalWeight <= 0 || len(active) == 0 {
			break
		}
		changed := false
		for _, name := range active {
			s := shares[name]
			s.rawShare = float64(remaining) * (s.weight / totalWeight)
		}
		var stillActive []string
		for _, name := range active {
			s := shares[name]
			capped := int64(math.Floor(s.rawShare))
			if capped >= s.contentSize {
				allocations[name] = s.contentSize
				remaining -= s.contentSize
				totalWeight -= s.weight
				changed = true
				continue
			}
			stillActive = append(stillActive, name)
		}
		active = stillActive
		if !changed {
			break
		}
	}

	// Distribute the final floor shares and remainders among whatever's left active.
	if len(active) > 0 && totalWeight > 0 {
		var floorSum int64
		for _, name := range active {
			s := shares[name]
			rawShare := float64(remaining) * (s.weight / totalWeight)
			floor := int64(math.Floor(rawShare))
			s.floor = floor
			s.frac = rawShare - float64(floor)
			allocations[name] = floor
			floorSum += floor
		}
		leftover := remaining - floorSum

		ordered := make([]*share, 0, len(active))
		for _, name := range active {
			ordered = append(ordered, shares[name])
		}
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].frac != ordered[j].frac {
				return ordered[i].frac > ordered[j].frac
			}
			return ordered[i].name < ordered[j].name
		})

		for i := int64(0); i < leftover && len(ordered) > 0; i++ {
			idx := int(i % int64(len(ordered)))
			name := ordered[idx].name
			if allocations[name] < shares[name].contentSize {
				allocations[name]++
			}
		}
	}

	for _, name := range optionalCategories {
		if _, ok := allocations[name]; !ok {
			allocations[name] = 0
		}
	}

	return allocations
}

// applyOptionalTruncation truncates each of the four optional categories down to its
// allocated byte budget using the file-block truncation strategy, returning one
// TruncationNote per category actually truncated.
func applyOptionalTruncation(e *core.ExtractedRepoMarkdown, allocations map[string]int64) []core.TruncationNote {
	var notes []core.TruncationNote
	for _, name := range optionalCategories {
		target := allocations[name]
		current := strOf(optionalField(e, name))
		originalLen := int64(len(current))
		if originalLen <= target {
			continue
		}
		truncated := truncateFileBlocks(current, target)
		setOptionalField(e, name, truncated)
		notes = append(notes, core.TruncationNote{
			Section:       name,
			OriginalBytes: originalLen,
			TargetBytes:   target,
			FinalBytes:    int64(len(truncated)),
			Strategy:      "file_block_greedy_partial",
		})
	}
	return notes
}
