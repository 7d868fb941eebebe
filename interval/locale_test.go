package interval_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/calheatmap/interval"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		id        string
		want      interval.Locale
		weekStart time.Weekday
	}{
		{"", interval.LocaleEnglish, time.Sunday},
		{"en", interval.LocaleEnglish, time.Sunday},
		{"en-US", interval.LocaleEnglish, time.Sunday},
		{"en-GB", interval.LocaleBritishEnglish, time.Monday},
		{"en_gb", interval.LocaleBritishEnglish, time.Monday},
		{"fr", interval.LocaleFrench, time.Monday},
		{"fr-CA", interval.LocaleFrench, time.Monday},
		{"pt", interval.LocalePortuguese, time.Monday},
		{"pt-BR", interval.LocaleBrazilianPortuguese, time.Sunday},
		{"zh-CN", interval.LocaleChinese, time.Monday},
		{"ar", interval.LocaleArabic, time.Saturday},
		{"ja", interval.LocaleJapanese, time.Sunday},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := interval.ParseLocale(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.weekStart, got.WeekStart())
		})
	}
}

func TestParseLocale_Rejects(t *testing.T) {
	for _, id := range []string{"klingon!", "xx", "qaa"} {
		t.Run(id, func(t *testing.T) {
			_, err := interval.ParseLocale(id)
			require.ErrorIs(t, err, interval.ErrInvalidLocale)

			var cfgErr *interval.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "locale", cfgErr.Field)
		})
	}
}

func TestLocales_AllRoundTrip(t *testing.T) {
	for _, l := range interval.Locales() {
		got, err := interval.ParseLocale(l.String())
		require.NoError(t, err, l.String())
		assert.Equal(t, l, got)
	}
}

func TestWeekTruncation_FollowsLocaleWeekStart(t *testing.T) {
	// Thursday 2020-01-02
	for _, l := range interval.Locales() {
		e := interval.NewEngine(l, time.UTC)

		start, err := e.StartOfTime(interval.UnitWeek, interval.At(reference))
		require.NoError(t, err)

		assert.Equal(t, l.WeekStart(), start.Weekday(), l.String())
		assert.Less(t, reference.Sub(start), 7*24*time.Hour, l.String())
	}
}
