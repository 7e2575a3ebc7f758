package docs

import (
	"sort"
	"strings"
)

// ScoreTable is the library ranking configuration. The weights and word
// lists are domain data, not logic: the defaults mirror hand-tuned values
// for popular web-development libraries, and callers can swap the whole
// table without touching the ranking code.
type ScoreTable struct {
	// OfficialOrgs are organizations whose libraries outrank community
	// mirrors and forks.
	OfficialOrgs []string

	// DocsRepoNames are repository names that indicate canonical
	// documentation rather than source code.
	DocsRepoNames []string

	// NoiseWords mark example/demo repositories that add noise to
	// retrieval results.
	NoiseWords []string

	// ExactBonuses maps a query term to the one organization it
	// unambiguously names. Matching candidates get BonusExact.
	ExactBonuses map[string]string

	// Weights.
	BonusOfficialOrg int
	BonusDocsRepo    int
	BonusNameMatch   int
	PenaltyNoise     int
	BonusKeyword     int
	BonusExact       int
}

// DefaultScoreTable returns the hand-tuned ranking table.
func DefaultScoreTable() ScoreTable {
	return ScoreTable{
		OfficialOrgs: []string{
			"vercel", "facebook", "reactjs", "vuejs", "sveltejs", "angular",
			"tailwindlabs", "prisma", "drizzle-team", "better-auth",
			"supabase", "stripe", "mongodb", "expressjs", "nestjs",
			"remix-run", "nodejs", "denoland", "microsoft", "golang",
		},
		DocsRepoNames: []string{
			"docs", "documentation", "website",
		},
		NoiseWords: []string{
			"example", "demo", "starter", "boilerplate", "template", "sample",
		},
		ExactBonuses: map[string]string{
			"better auth": "better-auth",
			"better-auth": "better-auth",
			"drizzle":     "drizzle-team",
			"next.js":     "vercel",
			"nextjs":      "vercel",
		},
		BonusOfficialOrg: 50,
		BonusDocsRepo:    30,
		BonusNameMatch:   40,
		PenaltyNoise:     -40,
		BonusKeyword:     10,
		BonusExact:       100,
	}
}

// Candidate is a scored library identifier.
type Candidate struct {
	// ID is the /org/repo library identifier.
	ID string

	// Score is the heuristic relevance score. Higher is more relevant.
	Score int
}

// Rank scores every identifier against the query and returns candidates
// sorted by descending score. The sort is stable: ties keep input order,
// so repeated calls with the same inputs produce the same ordering.
func Rank(ids []string, query string, table ScoreTable) []Candidate {
	query = strings.ToLower(strings.TrimSpace(query))

	candidates := make([]Candidate, len(ids))
	for i, id := range ids {
		candidates[i] = Candidate{ID: id, Score: score(id, query, table)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// score computes the heuristic relevance of one identifier.
func score(id, query string, table ScoreTable) int {
	org, repo := splitID(id)
	s := 0

	for _, official := range table.OfficialOrgs {
		if org == official {
			s += table.BonusOfficialOrg
			break
		}
	}

	for _, name := range table.DocsRepoNames {
		if repo == name {
			s += table.BonusDocsRepo
			break
		}
	}

	if nameMatchesQuery(repo, query) {
		s += table.BonusNameMatch
	}

	for _, noise := range table.NoiseWords {
		if strings.Contains(repo, noise) {
			s += table.PenaltyNoise
			break
		}
	}

	s += table.BonusKeyword * sharedKeywords(id, query)

	for term, exactOrg := range table.ExactBonuses {
		if strings.Contains(query, term) && org == exactOrg {
			s += table.BonusExact
			break
		}
	}

	return s
}

// splitID splits "/org/repo" into lower-cased org and repo parts.
func splitID(id string) (org, repo string) {
	parts := strings.Split(strings.ToLower(strings.TrimPrefix(id, "/")), "/")
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// nameMatchesQuery reports whether the repo name loosely appears in the
// query, ignoring separators ("next-auth" matches "next auth").
func nameMatchesQuery(repo, query string) bool {
	if repo == "" {
		return false
	}
	flatRepo := flatten(repo)
	flatQuery := flatten(query)
	if flatRepo == "" || flatQuery == "" {
		return false
	}
	return strings.Contains(flatQuery, flatRepo) || strings.Contains(flatRepo, flatQuery)
}

// sharedKeywords counts query tokens (3+ chars) that appear in the
// identifier.
func sharedKeywords(id, query string) int {
	lowerID := strings.ToLower(id)
	n := 0
	for _, token := range strings.Fields(query) {
		token = strings.Trim(token, ".,?!\"'")
		if len(token) < 3 {
			continue
		}
		if strings.Contains(lowerID, token) {
			n++
		}
	}
	return n
}

// flatten removes separator characters for loose comparison.
func flatten(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.', '/':
			return -1
		}
		return r
	}, s)
}
