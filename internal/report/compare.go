package report

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/ca-srg/ccrcheck/internal/cluster"
)

// Comparison describes how a follower's documents differ from its leader's.
// Documents are matched by _id alone because leader and follower indices have
// different names. An _id returned more than once on a side (possible with
// multi-index targets) cannot be matched and is listed in Duplicates.
type Comparison struct {
	Leader            string   `json:"leader"`
	Follower          string   `json:"follower"`
	LeaderCount       int      `json:"leader_count"`
	FollowerCount     int      `json:"follower_count"`
	MissingOnFollower []string `json:"missing_on_follower"`
	OnlyOnFollower    []string `json:"only_on_follower"`
	Changed           []string `json:"changed"`
	Duplicates        []string `json:"duplicates"`
}

// InSync reports whether both sides returned the same documents.
func (c *Comparison) InSync() bool {
	return len(c.MissingOnFollower) == 0 && len(c.OnlyOnFollower) == 0 && len(c.Changed) == 0 && len(c.Duplicates) == 0
}

// Compare matches leader and follower hits by ID. All ID lists are sorted.
func Compare(leader, follower Section) *Comparison {
	leaderDocs, leaderDups := indexByID(leader.Hits)
	followerDocs, followerDups := indexByID(follower.Hits)

	c := &Comparison{
		Leader:            leader.Label,
		Follower:          follower.Label,
		LeaderCount:       len(leader.Hits),
		FollowerCount:     len(follower.Hits),
		MissingOnFollower: []string{},
		OnlyOnFollower:    []string{},
		Changed:           []string{},
		Duplicates:        []string{},
	}

	dups := make(map[string]struct{}, len(leaderDups)+len(followerDups))
	for _, id := range append(leaderDups, followerDups...) {
		if _, seen := dups[id]; !seen {
			dups[id] = struct{}{}
			c.Duplicates = append(c.Duplicates, id)
		}
	}

	for id, src := range leaderDocs {
		if _, dup := dups[id]; dup {
			continue
		}
		other, ok := followerDocs[id]
		if !ok {
			c.MissingOnFollower = append(c.MissingOnFollower, id)
			continue
		}
		if !sameSource(src, other) {
			c.Changed = append(c.Changed, id)
		}
	}
	for id := range followerDocs {
		if _, dup := dups[id]; dup {
			continue
		}
		if _, ok := leaderDocs[id]; !ok {
			c.OnlyOnFollower = append(c.OnlyOnFollower, id)
		}
	}

	sort.Strings(c.MissingOnFollower)
	sort.Strings(c.OnlyOnFollower)
	sort.Strings(c.Changed)
	sort.Strings(c.Duplicates)

	return c
}

// indexByID maps _id to source and returns the ids seen more than once.
func indexByID(hits []cluster.Hit) (map[string]json.RawMessage, []string) {
	out := make(map[string]json.RawMessage, len(hits))
	var dups []string
	for _, hit := range hits {
		if _, ok := out[hit.ID]; ok {
			dups = append(dups, hit.ID)
			continue
		}
		out[hit.ID] = hit.Source
	}
	return out, dups
}

// sameSource compares two sources ignoring key order and whitespace.
func sameSource(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	an, _ := json.Marshal(av)
	bn, _ := json.Marshal(bv)
	return bytes.Equal(an, bn)
}
