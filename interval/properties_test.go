package interval_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/calheatmap/interval"
)

// zones covers fixed offsets, half-hour offsets and DST zones, including
// one with midnight transitions and one with a 30 minute DST shift.
var zones = []string{"UTC", "Europe/Paris", "America/New_York", "Asia/Kolkata", "America/Sao_Paulo", "Australia/Sydney", "Australia/Lord_Howe"}

var locales = []string{"en", "fr", "ar"}

func sampleInstants(n int) []time.Time {
	rng := rand.New(rand.NewSource(42))
	lo := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	hi := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.UnixMilli(lo + rng.Int63n(hi-lo))
	}
	return out
}

func TestProperty_StartOfIsIdempotentProjection(t *testing.T) {
	instants := sampleInstants(200)

	for _, tz := range zones {
		for _, locale := range locales {
			e := newEngine(t, locale, tz)
			for _, u := range interval.Units() {
				for _, at := range instants {
					start, err := e.StartOf(u, interval.At(at))
					require.NoError(t, err)
					again, err := e.StartOf(u, interval.Millis(start))
					require.NoError(t, err)

					assert.LessOrEqual(t, start, at.UnixMilli(), "%s %s %s %s", tz, locale, u, at)
					assert.Equal(t, start, again, "%s %s %s %s", tz, locale, u, at)
				}
			}
		}
	}
}

func TestProperty_SequenceIsStrictlyIncreasingAndCounted(t *testing.T) {
	instants := sampleInstants(25)

	for _, tz := range zones {
		e := newEngine(t, "fr", tz)
		for _, u := range interval.Units() {
			for _, at := range instants {
				seq, err := e.Sequence(u, interval.At(at), interval.Count(40))
				require.NoError(t, err)
				require.Len(t, seq, 40)

				for i := 1; i < len(seq); i++ {
					assert.True(t, seq[i].After(seq[i-1]), "%s %s %s index %d", tz, u, at, i)

					// Each element is itself an interval start.
					start, err := e.StartOfTime(u, interval.At(seq[i]))
					require.NoError(t, err)
					assert.True(t, start.Equal(seq[i]), "%s %s %s index %d", tz, u, at, i)
				}
			}
		}
	}
}

func TestProperty_BoundWithinSameIntervalIsSingleton(t *testing.T) {
	instants := sampleInstants(50)
	e := newEngine(t, "en", "Europe/Paris")

	for _, u := range interval.Units() {
		for _, at := range instants {
			iv, err := e.Interval(u, interval.At(at))
			require.NoError(t, err)

			last := iv.End.Add(-time.Millisecond)
			seq, err := e.Sequence(u, interval.At(at), interval.Bound(interval.At(last)))
			require.NoError(t, err)
			assert.Equal(t, []int64{iv.Start.UnixMilli()}, seq.Millis())
		}
	}
}

func TestProperty_CountAndBoundAgree(t *testing.T) {
	instants := sampleInstants(20)
	e := newEngine(t, "en", "America/New_York")

	for _, u := range interval.Units() {
		for _, at := range instants {
			counted, err := e.Sequence(u, interval.At(at), interval.Count(12))
			require.NoError(t, err)

			bounded, err := e.Sequence(u, interval.At(at), interval.Bound(interval.At(counted.Last())))
			require.NoError(t, err)

			assert.Equal(t, counted.Millis(), bounded.Millis())
		}
	}
}

func TestProperty_ClockUnitsAroundTransitions(t *testing.T) {
	// Every 7 minutes across each 2024 transition of zones with 30 and 60
	// minute shifts.
	windows := map[string][]time.Time{
		"Australia/Lord_Howe": {utc("2024-04-06T12:00:00Z"), utc("2024-10-05T12:00:00Z")},
		"Europe/Paris":        {utc("2024-03-30T22:00:00Z"), utc("2024-10-26T22:00:00Z")},
		"America/Sao_Paulo":   {utc("2018-11-03T23:00:00Z"), utc("2019-02-16T23:00:00Z")},
	}

	for tz, starts := range windows {
		e := newEngine(t, "en", tz)
		for _, u := range []interval.Unit{interval.UnitMinute, interval.UnitHour} {
			for _, from := range starts {
				for at := from; at.Before(from.Add(8 * time.Hour)); at = at.Add(7 * time.Minute) {
					start, err := e.StartOfTime(u, interval.At(at))
					require.NoError(t, err)
					again, err := e.StartOfTime(u, interval.At(start))
					require.NoError(t, err)
					assert.Equal(t, start.UnixMilli(), again.UnixMilli(), "%s %s %s", tz, u, at)
					assert.False(t, start.After(at), "%s %s %s", tz, u, at)

					iv, err := e.Interval(u, interval.At(at))
					require.NoError(t, err)
					assert.True(t, iv.Contains(at), "%s %s %s", tz, u, at)
				}
			}
		}
	}
}

func TestEngine_SharedAcrossGoroutines(t *testing.T) {
	t.Parallel()

	e := newEngine(t, "fr", "Europe/Paris")
	instants := sampleInstants(50)

	const goroutines = 16

	// Serial answers to compare against.
	want := make([][]int64, len(instants))
	for i, at := range instants {
		seq, err := e.Sequence(interval.UnitDay, interval.At(at), interval.Count(10))
		require.NoError(t, err)
		want[i] = seq.Millis()
	}

	var wg sync.WaitGroup
	errs := make(chan error, goroutines*len(instants))
	mismatches := make(chan int, goroutines*len(instants))

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i, at := range instants {
				u := interval.Units()[(g+i)%len(interval.Units())]
				if _, err := e.StartOf(u, interval.At(at)); err != nil {
					errs <- err
				}
				seq, err := e.Sequence(interval.UnitDay, interval.At(at), interval.Count(10))
				if err != nil {
					errs <- err
					continue
				}
				got := seq.Millis()
				for k := range got {
					if got[k] != want[i][k] {
						mismatches <- i
						break
					}
				}
			}
		}(g)
	}

	wg.Wait()
	close(errs)
	close(mismatches)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Empty(t, mismatches)
}
