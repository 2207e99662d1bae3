package extract

// Field names used as keys of TelemetryFields.RawMatches.
const (
	FieldGeneration = "generation_mw"
	FieldFrequency  = "frequency_hz"
	FieldLoad       = "load_percent"
)

// The generation marker section looks like
//
//	PEAK GENERATION ... <span class="bold my-0 size24">4,919.90</span><span class="size15">MW</span>
//
// and carries the trend percentage somewhere after the marker.
var (
	GenerationChain = Chain{
		Field: FieldGeneration,
		Strategies: []Strategy{
			Pattern("peak_generation_section",
				`(?i)PEAK GENERATION[\s\S]*?<span[^>]*>([0-9,]+\.?\d*)</span><span[^>]*>MW</span>`),
			Pattern("bold_size24_mw",
				`(?i)<span[^>]*class="bold[^"]*size24"[^>]*>([0-9,]+\.?\d*)</span><span[^>]*>MW</span>`),
		},
	}

	FrequencyChain = Chain{
		Field: FieldFrequency,
		Strategies: []Strategy{
			Pattern("frequency_label", `(?i)Frequency:?\s*</span>\s*([0-9]+\.?\d*)Hz`),
			Pattern("freq_strong", `(?i)Freq\.?:?\s*<strong>([0-9]+\.?\d*)</strong>Hz`),
			Pattern("any_hz_token", `(?i)([0-9]+\.[0-9]+)Hz`),
		},
	}

	LoadChain = Chain{
		Field: FieldLoad,
		Strategies: []Strategy{
			Pattern("peak_generation_trend", `(?i)PEAK GENERATION[\s\S]*?([-+]?\d+\.?\d*)\s*%`),
		},
	}
)

// TelemetryFields are the candidate values pulled from the telemetry page.
type TelemetryFields struct {
	GenerationMW *float64
	FrequencyHz  *float64
	LoadPercent  *float64
	// RawMatches holds, per resolved field, the winning strategy and its raw token.
	RawMatches map[string]Match
}

// TelemetryExtractor resolves the three telemetry fields from their chains.
type TelemetryExtractor struct {
	Generation Chain
	Frequency  Chain
	Load       Chain
}

// NewTelemetryExtractor returns an extractor wired with the default chains.
func NewTelemetryExtractor() *TelemetryExtractor {
	return &TelemetryExtractor{
		Generation: GenerationChain,
		Frequency:  FrequencyChain,
		Load:       LoadChain,
	}
}

// Extract is pure: the same page always yields the same fields.
func (e *TelemetryExtractor) Extract(html string) TelemetryFields {
	fields := TelemetryFields{RawMatches: make(map[string]Match, 3)}

	var m *Match
	if fields.GenerationMW, m = e.Generation.Resolve(html); m != nil {
		fields.RawMatches[e.Generation.Field] = *m
	}
	if fields.FrequencyHz, m = e.Frequency.Resolve(html); m != nil {
		fields.RawMatches[e.Frequency.Field] = *m
	}
	if fields.LoadPercent, m = e.Load.Resolve(html); m != nil {
		fields.RawMatches[e.Load.Field] = *m
	}
	return fields
}

var defaultTelemetry = NewTelemetryExtractor()

// Telemetry extracts telemetry fields with the default chains.
func Telemetry(html string) TelemetryFields {
	return defaultTelemetry.Extract(html)
}
