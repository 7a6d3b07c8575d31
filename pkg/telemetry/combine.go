package telemetry

import (
	"time"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Combine fans every event out to each of hooks in order. Nil entries are
// skipped.
func Combine(hooks ...reactive.Hooks) reactive.Hooks {
	var list multiHooks
	for _, h := range hooks {
		if h != nil {
			list = append(list, h)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

type multiHooks []reactive.Hooks

func (m multiHooks) FlushStarted(pending int) func(int, error) {
	ends := make([]func(int, error), len(m))
	for i, h := range m {
		ends[i] = h.FlushStarted(pending)
	}
	return func(ran int, err error) {
		for i := len(ends) - 1; i >= 0; i-- {
			ends[i](ran, err)
		}
	}
}

func (m multiHooks) EffectRan(name string, d time.Duration, err error) {
	for _, h := range m {
		h.EffectRan(name, d, err)
	}
}

func (m multiHooks) TxStarted(name string) func(error) {
	return m.scoped(func(h reactive.Hooks) func(error) { return h.TxStarted(name) })
}

func (m multiHooks) ActionStarted(name string) func(error) {
	return m.scoped(func(h reactive.Hooks) func(error) { return h.ActionStarted(name) })
}

func (m multiHooks) scoped(begin func(reactive.Hooks) func(error)) func(error) {
	ends := make([]func(error), len(m))
	for i, h := range m {
		ends[i] = begin(h)
	}
	return func(err error) {
		for i := len(ends) - 1; i >= 0; i-- {
			ends[i](err)
		}
	}
}

func (m multiHooks) CyclicEffect(name string, runs int) {
	for _, h := range m {
		h.CyclicEffect(name, runs)
	}
}

func (m multiHooks) WatchFailed(name, stage string, err error) {
	for _, h := range m {
		h.WatchFailed(name, stage, err)
	}
}
