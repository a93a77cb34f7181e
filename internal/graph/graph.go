// Package graph builds the package dependency graph and computes PageRank.
package graph

import (
	"math"
	"sort"
	"strings"

	"github.com/phobologic/rsbrowse/internal/model"
	"github.com/phobologic/rsbrowse/internal/rustdoc"
	"github.com/phobologic/rsbrowse/internal/store"
)

// Build creates dependency edges from each document's paths table: a
// package depends on every other package owning a path it references.
// Targets need not be loaded; such edges show missing documents.
func Build(s *store.Store) []model.Dependency {
	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey]map[string]struct{})

	for _, pkg := range s.Packages() {
		doc, _ := s.Document(pkg)
		for local, summary := range doc.Paths {
			if summary.CrateID == 0 {
				continue
			}
			id := store.ID{Package: pkg, Local: local}
			owner, ok := s.Owner(id)
			if !ok || owner == "" || owner == pkg {
				continue // no self-edges
			}
			key := edgeKey{pkg, owner}
			if edgeSymbols[key] == nil {
				edgeSymbols[key] = make(map[string]struct{})
			}
			edgeSymbols[key][symbolName(summary)] = struct{}{}
		}
	}

	var deps []model.Dependency
	for key, syms := range edgeSymbols {
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Symbols: sortedKeys(syms),
		})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

func symbolName(summary rustdoc.ItemSummary) string {
	return strings.Join(summary.Path, "::")
}

// Rank applies PageRank to pkgs and sorts them by rank descending, then by
// name. Each referenced symbol counts as one edge; edges to packages not in
// pkgs are ignored.
func Rank(pkgs []model.Package, deps []model.Dependency) {
	if len(pkgs) == 0 {
		return
	}

	index := make(map[string]int, len(pkgs))
	for i := range pkgs {
		index[pkgs[i].Name] = i
	}

	g := newLinkGraph(len(pkgs))
	for _, d := range deps {
		src, srcOK := index[d.Source]
		tgt, tgtOK := index[d.Target]
		if srcOK && tgtOK {
			g.addLink(src, tgt, len(d.Symbols))
		}
	}

	var ranks []float64
	if g.links == 0 {
		ranks = make([]float64, len(pkgs))
		for i := range ranks {
			ranks[i] = 1.0 / float64(len(pkgs))
		}
	} else {
		ranks = g.pageRank(0.85, 100, 1e-6)
	}
	for i := range pkgs {
		pkgs[i].Rank = ranks[i]
	}

	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].Rank != pkgs[j].Rank {
			return pkgs[i].Rank > pkgs[j].Rank
		}
		return pkgs[i].Name < pkgs[j].Name
	})
}

type link struct {
	target int
	weight float64
}

// linkGraph is a weighted directed graph over node indices. Iteration
// follows index and insertion order, so ranks are reproducible.
type linkGraph struct {
	out    [][]link
	degree []float64
	links  int
}

func newLinkGraph(n int) *linkGraph {
	return &linkGraph{out: make([][]link, n), degree: make([]float64, n)}
}

func (g *linkGraph) addLink(src, tgt, weight int) {
	if weight <= 0 {
		return
	}
	g.out[src] = append(g.out[src], link{target: tgt, weight: float64(weight)})
	g.degree[src] += float64(weight)
	g.links++
}

func (g *linkGraph) pageRank(alpha float64, maxIter int, tol float64) []float64 {
	n := len(g.out)
	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	next := make([]float64, n)
	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		// Nodes without out-links spread their rank evenly.
		var dangling float64
		for i, deg := range g.degree {
			if deg == 0 {
				dangling += rank[i]
			}
		}
		base := teleport + alpha*dangling/float64(n)
		for i := range next {
			next[i] = base
		}

		for src, links := range g.out {
			if g.degree[src] == 0 {
				continue
			}
			share := alpha * rank[src] / g.degree[src]
			for _, l := range links {
				next[l.target] += share * l.weight
			}
		}

		var diff float64
		for i := range rank {
			diff += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if diff < tol {
			break
		}
	}
	return rank
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
