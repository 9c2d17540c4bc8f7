package domain

import (
	"fmt"
	"sort"
	"strings"
)

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// ParseAsrTime parses "jumhour"/"standard"/"shafi" or "hanafi".
func ParseAsrTime(s string) (AsrTime, error) {
	switch normalize(s) {
	case "jumhour", "standard", "shafi":
		return AsrTimeJumhour, nil
	case "hanafi":
		return AsrTimeHanafi, nil
	}
	return "", fmt.Errorf("%w: asr time %q", ErrInvalidOption, s)
}

func ParseHighLatitudeRule(s string) (HighLatitudeRule, error) {
	switch r := HighLatitudeRule(normalize(s)); r {
	case HighLatitudeMiddleOfTheNight, HighLatitudeSeventhOfTheNight, HighLatitudeTwilightAngle:
		return r, nil
	}
	return "", fmt.Errorf("%w: high latitude rule %q", ErrInvalidOption, s)
}

func ParsePolarCircleResolution(s string) (PolarCircleResolution, error) {
	switch r := PolarCircleResolution(normalize(s)); r {
	case PolarUnresolved, PolarAqrabBalad, PolarAqrabYaum:
		return r, nil
	}
	return "", fmt.Errorf("%w: polar circle resolution %q", ErrInvalidOption, s)
}

// ParseAdjustments converts prayer-name keyed minute offsets. "none" is rejected.
func ParseAdjustments(in map[string]int) (Adjustments, error) {
	if len(in) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Adjustments, len(in))
	for _, k := range keys {
		p, err := ParsePrayer(k)
		if err != nil || p == PrayerNone {
			return nil, fmt.Errorf("adjustments: %w: %q", ErrUnknownPrayer, k)
		}
		out[p] = in[k]
	}
	return out, nil
}
