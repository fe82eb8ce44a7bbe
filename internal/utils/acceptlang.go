package utils

import (
	"sort"
	"strconv"
	"strings"
)

// DetermineLocale picks the locale for a request: an explicit lang query
// parameter first, then the highest-q supported Accept-Language entry, then
// def. Regional tags fall back to their base language ("pt-BR" -> "pt").
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	sup := map[string]struct{}{}
	for _, s := range supported {
		sup[strings.ToLower(s)] = struct{}{}
	}

	pick := func(lang string) (string, bool) {
		if lang == "" {
			return "", false
		}
		l := strings.ToLower(strings.TrimSpace(lang))
		if _, ok := sup[l]; ok {
			return l, true
		}
		if i := strings.IndexAny(l, "-_"); i > 0 {
			if _, ok := sup[l[:i]]; ok {
				return l[:i], true
			}
		}
		return "", false
	}

	if v, ok := pick(queryLang); ok {
		return v
	}

	type cand struct {
		lang string
		q    float64
	}
	var cands []cand
	for _, part := range strings.Split(acceptLang, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		lang, params, _ := strings.Cut(p, ";")
		q := 1.0
		if k, v, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(k) == "q" {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q <= 0 {
			continue
		}
		if l, ok := pick(lang); ok {
			cands = append(cands, cand{lang: l, q: q})
		}
	}
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].q > cands[j].q })
		return cands[0].lang
	}
	if v, ok := pick(def); ok {
		return v
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}
