// Package skills matches a fixed technology vocabulary against free text
// and embeds skill sets into a vector used for job recommendations.
package skills

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/pgvector/pgvector-go"
)

// Keywords is the vocabulary; its order defines the vector dimensions.
var Keywords = []string{
	"java", "spring", "spring boot", "hibernate", "sql", "postgresql", "mysql",
	"react", "angular", "docker", "kubernetes", "aws", "git", "rest", "microservices",
}

var patterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(Keywords))
	for i, k := range Keywords {
		out[i] = regexp.MustCompile(`(?i)(^|[^a-z0-9])` + regexp.QuoteMeta(k) + `($|[^a-z0-9])`)
	}
	return out
}()

// Extract returns the vocabulary keywords found in text, in vocabulary order.
func Extract(text string) []string {
	var found []string
	for i, re := range patterns {
		if re.MatchString(text) {
			found = append(found, Keywords[i])
		}
	}
	return found
}

// Normalize lowercases, trims and dedupes a user-supplied skill list.
func Normalize(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Vector embeds skills as a 0/1 vector over Keywords.
// Returns nil when none of the skills are in the vocabulary.
func Vector(list []string) *pgvector.Vector {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	vec := make([]float32, len(Keywords))
	hit := false
	for i, k := range Keywords {
		if _, ok := set[k]; ok {
			vec[i] = 1
			hit = true
		}
	}
	if !hit {
		return nil
	}
	v := pgvector.NewVector(vec)
	return &v
}

// Similarity is the cosine similarity of two embeddings; 0 if either is nil.
func Similarity(a, b *pgvector.Vector) float64 {
	if a == nil || b == nil {
		return 0
	}
	x, y := a.Slice(), b.Slice()
	if len(x) != len(y) {
		return 0
	}
	var dot, nx, ny float64
	for i := range x {
		dot += float64(x[i] * y[i])
		nx += float64(x[i] * x[i])
		ny += float64(y[i] * y[i])
	}
	if nx == 0 || ny == 0 {
		return 0
	}
	return dot / (math.Sqrt(nx) * math.Sqrt(ny))
}
