package app

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"pcadash/adapters/excel"
	"pcadash/domain/insights"
	"pcadash/internal/errors"
)

// Query parameters shared by the dashboard form and the JSON API.
const (
	ParamPartID     = "part_id"
	ParamRejectType = "reject_type"
	ParamFrom       = "from"
	ParamTo         = "to"
)

// datetime-local inputs submit no zone; seconds are dropped when zero.
const (
	FormTimeLayout   = "2006-01-02T15:04:05"
	formMinuteLayout = "2006-01-02T15:04"
)

// ParseCriteria turns query parameters into filter criteria.
//
// No part_id parameters leave parts unfiltered, so clearing every part in the
// multi-select shows all parts again instead of an empty table. No reject_type
// parameters select every known reject type, which is what the form pre-selects;
// rows without a reject type are therefore excluded whenever the column exists.
// from/to may be given alone; the missing end defaults to the data's time bounds.
// An end given to the minute or second covers that whole minute or second.
func ParseCriteria(q url.Values, opts FilterOptions) (insights.Criteria, error) {
	var c insights.Criteria
	if ids := nonEmpty(q[ParamPartID]); len(ids) > 0 {
		c.PartIDs = ids
	}
	if opts.Capabilities.HasRejectType {
		if types := nonEmpty(q[ParamRejectType]); len(types) > 0 {
			c.RejectTypes = types
		} else if len(opts.RejectTypes) > 0 {
			c.RejectTypes = append([]string(nil), opts.RejectTypes...)
		}
	}
	if !opts.Capabilities.HasTimestamp {
		return c, nil
	}

	fromRaw, toRaw := strings.TrimSpace(q.Get(ParamFrom)), strings.TrimSpace(q.Get(ParamTo))
	if fromRaw == "" && toRaw == "" {
		return c, nil
	}
	var r insights.TimeRange
	if opts.TimeBounds != nil {
		r = *opts.TimeBounds
	} else {
		r = insights.TimeRange{From: time.Time{}, To: time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)}
	}
	if fromRaw != "" {
		from, _, err := parseFormTime(fromRaw)
		if err != nil {
			return insights.Criteria{}, errors.InvalidInput(fmt.Sprintf("invalid %s: %v", ParamFrom, err))
		}
		r.From = from
	}
	if toRaw != "" {
		to, span, err := parseFormTime(toRaw)
		if err != nil {
			return insights.Criteria{}, errors.InvalidInput(fmt.Sprintf("invalid %s: %v", ParamTo, err))
		}
		r.To = to.Add(span - time.Nanosecond)
	}
	if r.To.Before(r.From) {
		return insights.Criteria{}, errors.InvalidInput(fmt.Sprintf("%s is after %s", ParamFrom, ParamTo))
	}
	c.TimeRange = &r
	return c, nil
}

// parseFormTime returns the instant and the precision it was given with.
func parseFormTime(raw string) (time.Time, time.Duration, error) {
	if ts, err := time.Parse(FormTimeLayout, raw); err == nil {
		return ts, time.Second, nil
	}
	if ts, err := time.Parse(formMinuteLayout, raw); err == nil {
		return ts, time.Minute, nil
	}
	if ts, err := time.Parse(time.DateOnly, raw); err == nil {
		return ts, 24 * time.Hour, nil
	}
	ts, err := excel.ParseTimestamp(raw)
	return ts, time.Nanosecond, err
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Encode renders criteria back to query parameters, e.g. for export links.
func Encode(c insights.Criteria) url.Values {
	q := url.Values{}
	for _, id := range c.PartIDs {
		q.Add(ParamPartID, id)
	}
	for _, rt := range c.RejectTypes {
		q.Add(ParamRejectType, rt)
	}
	if c.TimeRange != nil {
		q.Set(ParamFrom, c.TimeRange.From.Format(time.RFC3339Nano))
		q.Set(ParamTo, c.TimeRange.To.Format(time.RFC3339Nano))
	}
	return q
}
