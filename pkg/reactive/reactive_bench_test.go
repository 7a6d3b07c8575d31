package reactive

import (
	"fmt"
	"testing"
)

func BenchmarkSignalRead(b *testing.B) {
	s := NewSignal(42)

	b.Run("untracked", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = s.Get()
		}
	})
	b.Run("tracked", func(b *testing.B) {
		listener := newTestListener()
		for i := 0; i < b.N; i++ {
			listener.track(func() { _ = s.Get() })
		}
	})
	b.Run("peek", func(b *testing.B) {
		listener := newTestListener()
		for i := 0; i < b.N; i++ {
			listener.track(func() { _ = s.Peek() })
		}
	})
}

func BenchmarkSignalWrite(b *testing.B) {
	for _, effects := range []int{0, 1, 10, 100} {
		b.Run(fmt.Sprintf("effects=%d", effects), func(b *testing.B) {
			s := NewSignal(0)
			owner := NewOwner(nil)
			defer owner.Dispose()
			WithOwner(owner, func() {
				for j := 0; j < effects; j++ {
					Autorun(func() { _ = s.Get() })
				}
			})
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				s.Set(i)
			}
		})
	}
}

func BenchmarkComputedRead(b *testing.B) {
	s := NewSignal(21)
	c := NewComputed(func() int { return s.Get() * 2 })

	b.Run("dormant", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = c.Get()
		}
	})
	b.Run("observed", func(b *testing.B) {
		stop := Autorun(func() { _ = c.Get() })
		defer stop()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = c.Get()
		}
	})
}

func BenchmarkPropagation(b *testing.B) {
	for _, depth := range []int{10, 100} {
		b.Run(fmt.Sprintf("chain=%d", depth), func(b *testing.B) {
			s := NewSignal(0)
			tail := s.Get
			for j := 0; j < depth; j++ {
				prev := tail
				tail = NewComputed(func() int { return prev() + 1 }).Get
			}
			stop := Autorun(func() { _ = tail() })
			defer stop()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				s.Set(i)
			}
		})
	}

	for _, width := range []int{10, 100} {
		b.Run(fmt.Sprintf("diamond=%d", width), func(b *testing.B) {
			s := NewSignal(0)
			layer := make([]*Computed[int], width)
			for j := range layer {
				k := j
				layer[j] = NewComputed(func() int { return s.Get() + k })
			}
			join := NewComputed(func() int {
				sum := 0
				for _, c := range layer {
					sum += c.Get()
				}
				return sum
			})
			stop := Autorun(func() { _ = join.Get() })
			defer stop()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				s.Set(i)
			}
		})
	}
}

func BenchmarkBatch(b *testing.B) {
	for _, n := range []int{10, 100} {
		b.Run(fmt.Sprintf("writes=%d", n), func(b *testing.B) {
			signals := make([]*Signal[int], n)
			for j := range signals {
				signals[j] = NewSignal(0)
			}
			stop := Autorun(func() {
				for _, s := range signals {
					_ = s.Get()
				}
			})
			defer stop()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				Batch(func() {
					for _, s := range signals {
						s.Set(i)
					}
				})
			}
		})
	}
}

func BenchmarkWatch(b *testing.B) {
	s := NewSignal(0)
	calls := 0
	stop := Watch(s.Get, func(int, int) { calls++ })
	defer stop()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		s.Set(i + 1)
	}
	b.ReportMetric(float64(calls)/float64(b.N), "calls/op")
}
