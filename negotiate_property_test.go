package negotiate

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/albertocavalcante/go-negotiate/version"
)

// Any chain of registries sharing one scheduler polyfills exactly once, and
// it is the globally newest source.
func TestSupersedeChainProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "registries")
		sched := &ManualScheduler{}

		var (
			prev    Previous
			last    *Registry
			sources []*RecordingSource
			newest  version.Version
			want    *RecordingSource
		)
		for i := range n {
			r, err := FromPrevious(prev, WithScheduler(sched))
			if err != nil {
				rt.Fatalf("FromPrevious() error = %v", err)
			}
			v := version.New(
				rapid.Uint64Range(1, 3).Draw(rt, "major"),
				rapid.Uint64Range(0, 3).Draw(rt, "minor"),
				rapid.Uint64Range(0, 3).Draw(rt, "patch"),
				nil, nil)
			src := NewRecordingSource(fmt.Sprintf("s%d", i), v.String())
			r.Register(src.Name(), src)
			sources = append(sources, src)
			if want == nil || v.HasPrecedenceOver(newest) {
				newest, want = v, src
			}
			prev, last = r, r
		}

		sched.Flush()

		total := 0
		for _, s := range sources {
			total += s.Polyfills()
		}
		if total != 1 {
			rt.Fatalf("total polyfills = %d, want 1", total)
		}
		if want.Polyfills() != 1 {
			rt.Fatalf("newest source %s (%s) was not the one polyfilled", want.Name(), want.Version())
		}
		if !last.Invoked() {
			rt.Fatal("live registry not invoked")
		}
	})
}
