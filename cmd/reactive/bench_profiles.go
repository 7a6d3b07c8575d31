package main

import (
	"slices"
	"strconv"

	"github.com/vango-dev/reactive/pkg/observable"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// benchParams sizes a benchmark graph.
type benchParams struct {
	Width int
	Depth int
}

// benchGraph is a built benchmark graph. write performs the i-th root
// write; glitches reports effect observations that disagreed with the
// root value.
type benchGraph struct {
	nodes    int
	write    func(i int)
	glitches func() int
}

type profile struct {
	Name        string
	Description string
	Width       int
	Depth       int
	build       func(p benchParams) *benchGraph
}

var profiles = map[string]profile{
	"chain": {
		Name:        "chain",
		Description: "one signal feeding a linear chain of computeds and one effect",
		Depth:       50,
		build:       buildChain,
	},
	"fanout": {
		Name:        "fanout",
		Description: "one signal read directly by many effects",
		Width:       100,
		build:       buildFanout,
	},
	"diamond": {
		Name:        "diamond",
		Description: "one signal, a layer of computeds, a join computed and one effect",
		Width:       50,
		build:       buildDiamond,
	},
	"collection": {
		Name:        "collection",
		Description: "an observable map with one effect per key, one key written per step",
		Width:       100,
		build:       buildCollection,
	},
	"batch": {
		Name:        "batch",
		Description: "many signals written in one batch and summed by one effect",
		Width:       50,
		build:       buildBatch,
	},
}

func profileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// params merges overrides into the profile defaults.
func (p profile) params(width, depth int) benchParams {
	out := benchParams{Width: p.Width, Depth: p.Depth}
	if width > 0 {
		out.Width = width
	}
	if depth > 0 {
		out.Depth = depth
	}
	if out.Width <= 0 {
		out.Width = 1
	}
	if out.Depth <= 0 {
		out.Depth = 1
	}
	return out
}

func buildChain(p benchParams) *benchGraph {
	root := reactive.NewSignal(0, reactive.Named("root"))
	tail := root.Get
	for i := 0; i < p.Depth; i++ {
		prev := tail
		c := reactive.NewComputed(func() int { return prev() + 1 }, reactive.Named("chain."+strconv.Itoa(i)))
		tail = c.Get
	}

	glitches := 0
	reactive.CreateEffect(func() reactive.Cleanup {
		if tail() != root.Peek()+p.Depth {
			glitches++
		}
		return nil
	}, reactive.EffectName("chain.tail"))

	return &benchGraph{
		nodes:    p.Depth + 2,
		write:    func(i int) { root.Set(i + 1) },
		glitches: func() int { return glitches },
	}
}

func buildFanout(p benchParams) *benchGraph {
	root := reactive.NewSignal(0, reactive.Named("root"))
	glitches := 0
	for i := 0; i < p.Width; i++ {
		reactive.CreateEffect(func() reactive.Cleanup {
			if root.Get() != root.Peek() {
				glitches++
			}
			return nil
		}, reactive.EffectName("fanout."+strconv.Itoa(i)))
	}

	return &benchGraph{
		nodes:    p.Width + 1,
		write:    func(i int) { root.Set(i + 1) },
		glitches: func() int { return glitches },
	}
}

func buildDiamond(p benchParams) *benchGraph {
	root := reactive.NewSignal(0, reactive.Named("root"))
	layer := make([]*reactive.Computed[int], p.Width)
	for i := range layer {
		k := i + 1
		layer[i] = reactive.NewComputed(func() int { return root.Get() * k }, reactive.Named("diamond."+strconv.Itoa(i)))
	}
	join := reactive.NewComputed(func() int {
		sum := 0
		for _, c := range layer {
			sum += c.Get()
		}
		return sum
	}, reactive.Named("diamond.join"))

	factor := p.Width * (p.Width + 1) / 2
	glitches := 0
	reactive.CreateEffect(func() reactive.Cleanup {
		if join.Get() != root.Peek()*factor {
			glitches++
		}
		return nil
	}, reactive.EffectName("diamond.effect"))

	return &benchGraph{
		nodes:    p.Width + 3,
		write:    func(i int) { root.Set(i + 1) },
		glitches: func() int { return glitches },
	}
}

func buildCollection(p benchParams) *benchGraph {
	m := observable.NewMap[int, int](observable.Named("bench"))
	reactive.Batch(func() {
		for k := 0; k < p.Width; k++ {
			m.Set(k, k)
		}
	})

	glitches := 0
	for k := 0; k < p.Width; k++ {
		reactive.CreateEffect(func() reactive.Cleanup {
			if v, _ := m.Get(k); v%p.Width != k {
				glitches++
			}
			return nil
		}, reactive.EffectName("collection."+strconv.Itoa(k)))
	}

	return &benchGraph{
		nodes:    p.Width + 1,
		write:    func(i int) { m.Set(i%p.Width, i+p.Width) },
		glitches: func() int { return glitches },
	}
}

func buildBatch(p benchParams) *benchGraph {
	sources := make([]*reactive.Signal[int], p.Width)
	for i := range sources {
		sources[i] = reactive.NewSignal(0, reactive.Named("batch."+strconv.Itoa(i)))
	}

	glitches := 0
	reactive.CreateEffect(func() reactive.Cleanup {
		first := sources[0].Get()
		for _, s := range sources[1:] {
			if s.Get() != first {
				glitches++
				break
			}
		}
		return nil
	}, reactive.EffectName("batch.sum"))

	return &benchGraph{
		nodes: p.Width + 1,
		write: func(i int) {
			reactive.Batch(func() {
				for _, s := range sources {
					s.Set(i + 1)
				}
			})
		},
		glitches: func() int { return glitches },
	}
}
