package clustering

import (
	"github.com/kozaktomas/band-gallery/internal/constants"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/fingerprint"
)

// NearDuplicates groups photos whose pHash or dHash differ in at most threshold bits.
//
// Grouping is greedy: photos are visited in input order, each unassigned photo
// becomes an anchor and claims every later unassigned photo close to it. Two photos
// close to each other but not to a shared anchor may land in different groups.
func NearDuplicates(hashes []database.PhotoHash, threshold int) [][]string {
	assigned := make([]bool, len(hashes))
	var groups [][]string

	for i := range hashes {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		anchor := fingerprint.Hashes{PHash: hashes[i].PHash, DHash: hashes[i].DHash}
		group := []string{hashes[i].PhotoID}

		for j := i + 1; j < len(hashes); j++ {
			if assigned[j] {
				continue
			}
			other := fingerprint.Hashes{PHash: hashes[j].PHash, DHash: hashes[j].DHash}
			if fingerprint.NearDuplicate(anchor, other, threshold) {
				assigned[j] = true
				group = append(group, hashes[j].PhotoID)
			}
		}

		if len(group) >= constants.MinClusterSize {
			groups = append(groups, group)
		}
	}
	return groups
}
