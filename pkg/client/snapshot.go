package client

import (
	"math"
	"strings"

	"github.com/bobby-s-dev/weather-assistant/internal/models"
)

const DefaultIconBaseURL = "http://openweathermap.org/img/wn"

// SnapshotParser turns a RawPayload into a WeatherSnapshot. Parse never fails:
// a missing field or a value of the wrong type at any point of its path makes
// only that field absent.
type SnapshotParser struct {
	IconBaseURL string
}

func NewSnapshotParser(iconBaseURL string) *SnapshotParser {
	if iconBaseURL == "" {
		iconBaseURL = DefaultIconBaseURL
	}
	return &SnapshotParser{IconBaseURL: strings.TrimRight(iconBaseURL, "/")}
}

var defaultParser = NewSnapshotParser("")

// ParseSnapshot parses raw with the default icon base URL.
func ParseSnapshot(raw RawPayload, fallbackCity string) models.WeatherSnapshot {
	return defaultParser.Parse(raw, fallbackCity)
}

func (p *SnapshotParser) Parse(raw RawPayload, fallbackCity string) models.WeatherSnapshot {
	doc := map[string]any(raw)

	snapshot := models.WeatherSnapshot{
		ResolvedCity: fallbackCity,
	}
	if name := stringAt(doc, "name"); name != nil && *name != "" {
		snapshot.ResolvedCity = *name
	}

	snapshot.CountryCode = stringAt(doc, "sys", "country")
	snapshot.Temperature = floatAt(doc, "main", "temp")
	snapshot.FeelsLike = floatAt(doc, "main", "feels_like")
	snapshot.Humidity = percentAt(doc, "main", "humidity")
	snapshot.WindSpeed = floatAt(doc, "wind", "speed")

	if cond := firstCondition(doc); cond != nil {
		snapshot.Description = stringAt(cond, "description")
		snapshot.IconID = stringAt(cond, "icon")
	}
	if snapshot.IconID != nil && *snapshot.IconID != "" {
		iconURL := p.IconURL(*snapshot.IconID)
		snapshot.IconURL = &iconURL
	} else {
		snapshot.IconID = nil
	}

	return snapshot
}

// IconURL builds the provider's 2x icon address for iconID.
func (p *SnapshotParser) IconURL(iconID string) string {
	return p.IconBaseURL + "/" + iconID + "@2x.png"
}

// firstCondition returns weather[0] when weather is a non-empty array whose
// first element is an object.
func firstCondition(doc map[string]any) map[string]any {
	list, ok := doc["weather"].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	cond, _ := list[0].(map[string]any)
	return cond
}

// lookup descends through nested objects. Any non-object on the way, or a
// missing key, ends the walk.
func lookup(doc map[string]any, path ...string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func stringAt(doc map[string]any, path ...string) *string {
	v, ok := lookup(doc, path...)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func floatAt(doc map[string]any, path ...string) *float64 {
	v, ok := lookup(doc, path...)
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func intAt(doc map[string]any, path ...string) *int {
	f := floatAt(doc, path...)
	if f == nil {
		return nil
	}
	r := math.Round(*f)
	if r < math.MinInt || r >= math.MaxInt {
		return nil
	}
	n := int(r)
	return &n
}

// percentAt is intAt restricted to 0..100.
func percentAt(doc map[string]any, path ...string) *int {
	n := intAt(doc, path...)
	if n == nil || *n < 0 || *n > 100 {
		return nil
	}
	return n
}
