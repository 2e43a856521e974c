package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"insighthub/internal/analysis"
	"insighthub/internal/core"
)

// errBadRequest marks problems with the caller's parameters.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// parsePeriod reads start/end (YYYY-MM-DD) or a named preset. Explicit
// dates win; neither means the current month.
func parsePeriod(q url.Values, now time.Time) (core.Period, error) {
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))

	if start == "" && end == "" {
		p, err := core.PresetPeriod(strings.TrimSpace(q.Get("preset")), now)
		if err != nil {
			return core.Period{}, badRequest("%v", err)
		}
		return p, nil
	}
	if start == "" || end == "" {
		return core.Period{}, badRequest("start and end must be given together")
	}

	s, err := core.ParseDate(start)
	if err != nil {
		return core.Period{}, badRequest("invalid start %q", start)
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return core.Period{}, badRequest("invalid end %q", end)
	}
	p, err := core.NewPeriod(s, e)
	if err != nil {
		return core.Period{}, badRequest("%v", err)
	}
	return p, nil
}

// parseLocale prefers ?locale= and falls back to the first Accept-Language
// entry. An empty result means the server default.
func parseLocale(r *http.Request) string {
	if l := strings.TrimSpace(r.URL.Query().Get("locale")); l != "" {
		return analysis.MatchLocale(l).String()
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return ""
	}
	return analysis.MatchLocale(tags[0].String()).String()
}

func parseSign(q url.Values) (analysis.Sign, error) {
	s, ok := analysis.ParseSign(strings.TrimSpace(q.Get("type")))
	if !ok {
		return s, badRequest("type must be expenses or revenues")
	}
	return s, nil
}

// parseOptionalID reads a positive integer parameter; absent means nil.
func parseOptionalID(q url.Values, name string) (*int64, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, badRequest("invalid %s %q", name, v)
	}
	return &id, nil
}

func parseLimit(q url.Values, def, max int) (int, error) {
	v := strings.TrimSpace(q.Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > max {
		return 0, badRequest("limit must be between 1 and %d", max)
	}
	return n, nil
}
