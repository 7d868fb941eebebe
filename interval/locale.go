package interval

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// =============================================================================
// LOCALE - Week-start rules
// =============================================================================

// Locale selects the first day of the week. Only week truncation depends on
// it; every other unit is locale-independent.
type Locale uint8

const (
	LocaleEnglish Locale = iota
	LocaleBritishEnglish
	LocaleFrench
	LocaleGerman
	LocaleSpanish
	LocaleItalian
	LocaleDutch
	LocalePortuguese
	LocaleBrazilianPortuguese
	LocaleRussian
	LocalePolish
	LocaleSwedish
	LocaleJapanese
	LocaleKorean
	LocaleChinese
	LocaleArabic
	LocaleHebrew
)

// DefaultLocale is used when no locale identifier is configured.
const DefaultLocale = LocaleEnglish

type localeRule struct {
	tag       language.Tag
	weekStart time.Weekday
}

var localeRules = [...]localeRule{
	LocaleEnglish:             {language.English, time.Sunday},
	LocaleBritishEnglish:      {language.BritishEnglish, time.Monday},
	LocaleFrench:              {language.French, time.Monday},
	LocaleGerman:              {language.German, time.Monday},
	LocaleSpanish:             {language.Spanish, time.Monday},
	LocaleItalian:             {language.Italian, time.Monday},
	LocaleDutch:               {language.Dutch, time.Monday},
	LocalePortuguese:          {language.Portuguese, time.Monday},
	LocaleBrazilianPortuguese: {language.BrazilianPortuguese, time.Sunday},
	LocaleRussian:             {language.Russian, time.Monday},
	LocalePolish:              {language.Polish, time.Monday},
	LocaleSwedish:             {language.Swedish, time.Monday},
	LocaleJapanese:            {language.Japanese, time.Sunday},
	LocaleKorean:              {language.Korean, time.Sunday},
	LocaleChinese:             {language.Chinese, time.Monday},
	LocaleArabic:              {language.Arabic, time.Saturday},
	LocaleHebrew:              {language.Hebrew, time.Sunday},
}

// localeIndex maps "base" and "base-REGION" keys to locales.
var localeIndex = func() map[string]Locale {
	idx := make(map[string]Locale, len(localeRules))
	for l, r := range localeRules {
		idx[tagKey(r.tag, true)] = Locale(l)
	}
	return idx
}()

// tagKey renders a tag as "base" or, when withRegion is set and the region
// was written explicitly, "base-REGION".
func tagKey(tag language.Tag, withRegion bool) string {
	base, _ := tag.Base()
	if withRegion {
		if region, conf := tag.Region(); conf == language.Exact {
			return base.String() + "-" + region.String()
		}
	}
	return base.String()
}

// ParseLocale resolves a BCP 47 identifier ("en", "fr", "en-GB", "pt_BR")
// to a Locale. A region-specific rule wins over the language rule; unknown
// languages are rejected rather than defaulted.
func ParseLocale(id string) (Locale, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(id), "_", "-")
	if trimmed == "" {
		return DefaultLocale, nil
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		return 0, &ConfigError{Field: "locale", Value: id, Err: ErrInvalidLocale, Cause: err}
	}

	if l, ok := localeIndex[tagKey(tag, true)]; ok {
		return l, nil
	}
	if l, ok := localeIndex[tagKey(tag, false)]; ok {
		return l, nil
	}
	return 0, &ConfigError{Field: "locale", Value: id, Err: ErrInvalidLocale}
}

// Locales returns every supported locale in declaration order.
func Locales() []Locale {
	out := make([]Locale, len(localeRules))
	for i := range localeRules {
		out[i] = Locale(i)
	}
	return out
}

func (l Locale) Valid() bool { return int(l) < len(localeRules) }

// WeekStart is the first weekday of the locale's week.
func (l Locale) WeekStart() time.Weekday {
	if !l.Valid() {
		return localeRules[DefaultLocale].weekStart
	}
	return localeRules[l].weekStart
}

// Tag returns the language tag backing the locale.
func (l Locale) Tag() language.Tag {
	if !l.Valid() {
		return language.Und
	}
	return localeRules[l].tag
}

func (l Locale) String() string {
	if !l.Valid() {
		return "und"
	}
	return localeRules[l].tag.String()
}

// weekOffset is the number of days between t's weekday and the most recent
// occurrence of the week-start weekday (0 when t already falls on it).
func (l Locale) weekOffset(wd time.Weekday) int {
	return (int(wd) - int(l.WeekStart()) + 7) % 7
}
