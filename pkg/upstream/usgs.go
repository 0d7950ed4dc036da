package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// USGS Water Services endpoints. The instantaneous-values service returns
// readings at gauge resolution (typically 15 min); the daily-values
// service returns one statistic per calendar day.
const (
	DefaultInstantURL = "https://waterservices.usgs.gov/nwis/iv/"
	DefaultDailyURL   = "https://waterservices.usgs.gov/nwis/dv/"
)

// usgsNoData is the sentinel the USGS API reports for missing readings.
const usgsNoData = -999999

// USGSClient fetches time series from the USGS Water Services API using
// its site + parameter-code query model.
//
// Well-known parameter codes:
//   - 62614 — lake surface elevation above NGVD 1929, feet
//   - 00060 — discharge, cubic feet per second
type USGSClient struct {
	// InstantURL is the instantaneous-values endpoint. Defaults to DefaultInstantURL.
	InstantURL string

	// DailyURL is the daily-values endpoint. Defaults to DefaultDailyURL.
	DailyURL string

	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

// Instantaneous fetches instantaneous readings for the given site and
// parameter code covering the trailing period.
func (c *USGSClient) Instantaneous(ctx context.Context, site, parameterCd string, period time.Duration) ([]Sample, error) {
	base := c.InstantURL
	if base == "" {
		base = DefaultInstantURL
	}

	q := url.Values{}
	q.Set("sites", site)
	q.Set("parameterCd", parameterCd)
	q.Set("period", isoPeriod(period))
	q.Set("format", "json")

	body, err := getJSON(ctx, c.HTTPClient, base+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseTimeSeries(body, parameterCd)
}

// Daily fetches daily-value readings for the given site and parameter
// code between start and end (inclusive, calendar dates).
func (c *USGSClient) Daily(ctx context.Context, site, parameterCd string, start, end time.Time) ([]Sample, error) {
	base := c.DailyURL
	if base == "" {
		base = DefaultDailyURL
	}

	q := url.Values{}
	q.Set("sites", site)
	q.Set("parameterCd", parameterCd)
	q.Set("startDT", start.Format("2006-01-02"))
	q.Set("endDT", end.Format("2006-01-02"))
	q.Set("format", "json")

	body, err := getJSON(ctx, c.HTTPClient, base+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseTimeSeries(body, parameterCd)
}

// parseTimeSeries extracts samples for parameterCd from a USGS WaterML-JSON
// body. Missing structure maps to ErrMalformed; an empty series to ErrNoData.
func parseTimeSeries(body []byte, parameterCd string) ([]Sample, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	series := gjson.GetBytes(body, "value.timeSeries")
	if !series.Exists() || !series.IsArray() {
		return nil, fmt.Errorf("%w: missing value.timeSeries", ErrMalformed)
	}

	var samples []Sample
	var parseErr error

	series.ForEach(func(_, ts gjson.Result) bool {
		code := ts.Get("variable.variableCode.0.value").String()
		if code != parameterCd {
			return true
		}
		site := ts.Get("sourceInfo.siteCode.0.value").String()

		points := ts.Get("values.0.value")
		if !points.Exists() {
			return true
		}

		points.ForEach(func(_, p gjson.Result) bool {
			raw := p.Get("value")
			dt := p.Get("dateTime")
			if !raw.Exists() || !dt.Exists() {
				parseErr = fmt.Errorf("%w: data point missing value or dateTime", ErrMalformed)
				return false
			}

			v, err := strconv.ParseFloat(raw.String(), 64)
			if err != nil {
				parseErr = fmt.Errorf("%w: non-numeric value %q", ErrMalformed, raw.String())
				return false
			}
			if v == usgsNoData {
				return true
			}

			t, err := parseUSGSTime(dt.String())
			if err != nil {
				parseErr = fmt.Errorf("%w: bad dateTime %q", ErrMalformed, dt.String())
				return false
			}

			samples = append(samples, Sample{Time: t, Value: v, Site: site})
			return true
		})
		return parseErr == nil
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no points for parameter %s", ErrNoData, parameterCd)
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
	return samples, nil
}

// usgsTimeLayouts covers the formats the API emits: instantaneous values
// carry a UTC offset, daily values carry a bare local date.
var usgsTimeLayouts = []string{
	"2006-01-02T15:04:05.000-07:00",
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

func parseUSGSTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range usgsTimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// isoPeriod renders a duration as the ISO-8601 period string the USGS
// API expects, e.g. "P7D" or "PT2H".
func isoPeriod(d time.Duration) string {
	if d <= 0 {
		d = 2 * time.Hour
	}
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("P%dD", int(d.Hours())/24)
	}
	return fmt.Sprintf("PT%dH", int(d.Hours()))
}
