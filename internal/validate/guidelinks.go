package validate

import (
	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// GuideLinks reports guide link ids used by more than one build anywhere in
// the catalogue. Heroes are visited in sorted order and builds in dataset
// order; the first holder of an id owns it and every later holder gets one
// finding that names the owner in Related.
//
// Non-positive ids are skipped here; [Structural] reports them.
func GuideLinks(nc *herobuild.NormalizedCatalog) []Finding {
	first := make(map[int64]Location)
	var out []Finding
	for _, h := range nc.Heroes {
		for i := range h.Records {
			rec := &h.Records[i]
			id := rec.Build.SteamGuideLinkID
			if id <= 0 {
				continue
			}
			loc := buildLoc(rec).at("steamGuideLinkId")
			owner, dup := first[id]
			if !dup {
				first[id] = loc
				continue
			}
			f := NewFinding(KindDuplicateGuideLink, loc,
				"steamGuideLinkId %d is already used by %s", id, owner)
			f.Related = []Location{owner}
			out = append(out, f)
		}
	}
	return out
}
