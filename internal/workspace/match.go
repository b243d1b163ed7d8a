package workspace

import (
	"strings"

	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

// Matching weights. Signals are combined by taking the maximum, never
// summed, so correlated signals cannot double-count; the title bonus is
// the single additive exception. The values are empirically tuned and
// carried over as-is for behavior compatibility.
const (
	ScoreAppUserModelID = 1000
	ScorePackage        = 900
	ScorePwa            = 850
	ScorePath           = 750
	ScoreFileName       = 650
	ScoreTitle          = 400
	TitleBonus          = 20

	// titleBonusFloor is the minimum existing score the title bonus
	// stacks on. Weaker matches never gain from a matching title.
	titleBonusFloor = 650
)

// FrameHostExecutable hosts many unrelated packaged apps under one
// binary, so it is excluded from path and file-name matching outright.
const FrameHostExecutable = "applicationframehost.exe"

// browserProcesses are executables that host PWA windows. A PWA has no
// stable process path of its own; identity lives in its AppUserModelId.
var browserProcesses = map[string]bool{
	"msedge.exe":  true,
	"chrome.exe":  true,
	"brave.exe":   true,
	"vivaldi.exe": true,
	"opera.exe":   true,
	"firefox.exe": true,
}

// Score compares a live window against a stored application definition
// and returns the match strength, 0 meaning no match. It is pure and
// used in both directions: window-to-definition while capturing a
// snapshot and definition-to-window while launching.
func Score(window types.WindowInfo, def types.ApplicationDefinition) int {
	best := 0

	if fieldsEqual(window.AppUserModelID, def.AppUserModelID) {
		best = ScoreAppUserModelID
	}
	if best < ScorePackage && packageMatches(window.PackageFullName, def.PackageFullName) {
		best = ScorePackage
	}
	if best < ScorePwa && pwaMatches(window, def) {
		best = ScorePwa
	}
	if ps := pathScore(window, def); ps > best {
		best = ps
	}

	title := fieldsEqual(window.Title, def.Title)
	switch {
	case title && best >= titleBonusFloor:
		best += TitleBonus
	case title && best == 0 && ShouldAllowTitleMatch(def):
		best = ScoreTitle
	}

	return best
}

// IsMatch reports whether the window matches the definition at all.
func IsMatch(window types.WindowInfo, def types.ApplicationDefinition) bool {
	return Score(window, def) > 0
}

// IsTitleOnlyMatch reports whether a match rests exclusively on title
// equality. Callers use it to warn or ask for confirmation, since
// title-only matches are the most likely to be wrong.
func IsTitleOnlyMatch(window types.WindowInfo, def types.ApplicationDefinition) bool {
	return ShouldAllowTitleMatch(def) && fieldsEqual(window.Title, def.Title)
}

// ShouldAllowTitleMatch reports whether the definition qualifies for
// title-only matching: it must carry no stronger identity at all. A path
// pointing at the generic frame host counts as absent, since that
// executable identifies nothing.
func ShouldAllowTitleMatch(def types.ApplicationDefinition) bool {
	if def.AppUserModelID != "" || def.PackageFullName != "" || def.PwaAppID != "" {
		return false
	}
	if def.Path != "" && !isFrameHost(def.Path) {
		return false
	}
	return def.Name == ""
}

// packageMatches checks package full-name equality, falling back to
// package family equality so a reinstalled or updated packaged app
// (changed version/architecture segment) still matches.
func packageMatches(windowPkg, defPkg string) bool {
	if windowPkg == "" || defPkg == "" {
		return false
	}
	if strings.EqualFold(windowPkg, defPkg) {
		return true
	}
	wf, df := packageFamily(windowPkg), packageFamily(defPkg)
	return wf != "" && strings.EqualFold(wf, df)
}

// packageFamily strips the version and architecture segments from a
// package full name (Name_Version_Arch_ResourceId_PublisherHash),
// leaving Name_PublisherHash.
func packageFamily(fullName string) string {
	parts := strings.Split(fullName, "_")
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "_" + parts[len(parts)-1]
}

// pwaMatches identifies browser-hosted web apps: the window must belong
// to a known browser process and its AppUserModelId must contain the
// definition's PWA app id.
func pwaMatches(window types.WindowInfo, def types.ApplicationDefinition) bool {
	if def.PwaAppID == "" || window.AppUserModelID == "" {
		return false
	}
	if !browserProcesses[strings.ToLower(window.ProcessFileName)] {
		return false
	}
	return strings.Contains(strings.ToLower(window.AppUserModelID), strings.ToLower(def.PwaAppID))
}

// pathScore scores process path and file-name equality. The generic
// frame host is skipped entirely: many unrelated apps share it, so even
// an exact path match proves nothing.
func pathScore(window types.WindowInfo, def types.ApplicationDefinition) int {
	if def.Path == "" || isFrameHost(def.Path) {
		return 0
	}
	if fieldsEqual(window.ProcessPath, def.Path) {
		return ScorePath
	}
	if fieldsEqual(window.ProcessFileName, baseName(def.Path)) {
		return ScoreFileName
	}
	return 0
}

func isFrameHost(path string) bool {
	return strings.EqualFold(baseName(path), FrameHostExecutable)
}

// baseName returns the final path element for either separator style;
// persisted paths may come from a different OS than the one running.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// fieldsEqual is case-insensitive equality where absence never matches:
// an empty field on either side is not a wildcard.
func fieldsEqual(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}
