// Package dgroup partitions hashed records into duplicate groups: exact
// groups keyed by content digest and similar groups built by greedy
// star clustering over perceptual fingerprints.
package dgroup

import "dupescan/internal/dfs"

// Kind says under which policy a group's members are duplicates.
type Kind string

const (
	KindExact   Kind = "exact"
	KindSimilar Kind = "similar"
)

// Group is an immutable set of records considered duplicates of each
// other. Member order is discovery order and stable across a run.
type Group struct {
	kind      Kind
	files     []*dfs.Dfile
	threshold int
}

// NewGroup builds a group directly. Grouping normally goes through
// ExactGroups/SimilarGroups; this exists for the review layer's tests
// and for reconstructing groups from exports.
func NewGroup(kind Kind, files []*dfs.Dfile, threshold int) *Group {
	return &Group{kind: kind, files: files, threshold: threshold}
}

// Kind returns the grouping policy that produced the group.
func (g *Group) Kind() Kind { return g.kind }

// Files returns the members in discovery order. Callers must not
// mutate the returned slice.
func (g *Group) Files() []*dfs.Dfile { return g.files }

// Len returns the member count, always >= 2 for emitted groups.
func (g *Group) Len() int { return len(g.files) }

// Threshold returns the Hamming distance threshold used to build the
// group. Only meaningful for similar groups.
func (g *Group) Threshold() int { return g.threshold }

// TotalSize returns the combined byte size of all members.
func (g *Group) TotalSize() uint64 {
	var total uint64
	for _, f := range g.files {
		total += uint64(max(f.FileSize(), 0)) // #nosec G115
	}
	return total
}

// ExactGroups partitions records into equivalence classes by content
// digest and emits one exact group per class with at least two members.
// Records without a content fingerprint are excluded. Group order and
// member order follow first-seen order, so identical input always
// yields identical output.
func ExactGroups(files []*dfs.Dfile) []*Group {
	byDigest := make(map[dfs.Digest][]*dfs.Dfile)
	var order []dfs.Digest

	for _, f := range files {
		digest, ok := f.ContentHash()
		if !ok {
			continue
		}
		if _, seen := byDigest[digest]; !seen {
			order = append(order, digest)
		}
		byDigest[digest] = append(byDigest[digest], f)
	}

	var groups []*Group
	for _, digest := range order {
		members := byDigest[digest]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, &Group{kind: KindExact, files: members})
	}
	return groups
}

// SimilarGroups clusters records whose perceptual fingerprints lie
// within threshold Hamming distance of a seed.
//
// The policy is greedy star clustering, by design: candidates are
// visited in discovery order, each unclaimed candidate seeds a cluster,
// and every later unclaimed candidate within threshold of the seed is
// claimed by it. Membership is distance-to-seed only, never
// distance-to-member, so two members may be farther than threshold
// from each other, and a record close to a cluster's non-seed member
// can end up seeding its own cluster instead. Transitive
// (connected-component) clustering is deliberately not what this does.
//
// Cost is O(n^2) distance checks over the perceptually-hashed subset,
// which is only ever the image files.
func SimilarGroups(files []*dfs.Dfile, threshold int) []*Group {
	var candidates []*dfs.Dfile
	var hashes []dfs.PHash
	for _, f := range files {
		if p, ok := f.PerceptualHash(); ok {
			candidates = append(candidates, f)
			hashes = append(hashes, p)
		}
	}

	claimed := make([]bool, len(candidates))
	var groups []*Group

	for i, seed := range candidates {
		if claimed[i] {
			continue
		}

		members := []*dfs.Dfile{seed}
		for j := i + 1; j < len(candidates); j++ {
			if claimed[j] {
				continue
			}
			if hashes[i].Distance(hashes[j]) <= threshold {
				members = append(members, candidates[j])
				claimed[j] = true
			}
		}

		if len(members) < 2 {
			continue
		}
		claimed[i] = true
		groups = append(groups, &Group{
			kind:      KindSimilar,
			files:     members,
			threshold: threshold,
		})
	}
	return groups
}
