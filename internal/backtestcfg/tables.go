package backtestcfg

import (
	"strings"
	"unicode"
)

// fundamentalTypes maps editor names to wire types.
// ⭐ SSOT: 원격 실행기가 아는 펀더멘털 타입 목록
var fundamentalTypes = map[string]string{
	"PE Ratio":       "PE_RATIO",
	"PB Ratio":       "PB_RATIO",
	"Dividend Yield": "DIVIDEND_YIELD",
	"ROE":            "ROE",
	"Debt to Equity": "DEBT_TO_EQUITY",
	"Revenue Growth": "REVENUE_GROWTH",
	"EPS Growth":     "EPS_GROWTH",
	"Market Cap":     "MARKET_CAP",
	"Profit Margin":  "PROFIT_MARGIN",
}

var fundamentalNames = invert(fundamentalTypes)

// FundamentalNames returns the editor names with a known wire type
func FundamentalNames() []string {
	return []string{
		"PE Ratio", "PB Ratio", "Dividend Yield", "ROE", "Debt to Equity",
		"Revenue Growth", "EPS Growth", "Market Cap", "Profit Margin",
	}
}

// FundamentalType returns the wire type for an editor name.
// Unmapped names are transliterated.
func FundamentalType(name string) string {
	if t, ok := fundamentalTypes[name]; ok {
		return t
	}
	return Transliterate(name)
}

// TechnicalKind is the closed set of technical indicator shapes
type TechnicalKind int

const (
	TechnicalUnknown TechnicalKind = iota
	TechnicalSMACrossover
	TechnicalEMACrossover
	TechnicalRSI
	TechnicalMACD
	TechnicalBollinger
	TechnicalStochastic
	TechnicalVolumeSpike
)

type technicalShape struct {
	name     string
	wireType string
	params   []string
}

var technicalShapes = map[TechnicalKind]technicalShape{
	TechnicalSMACrossover: {"SMA Crossover", "SMA_CROSSOVER", []string{"shortPeriod", "longPeriod"}},
	TechnicalEMACrossover: {"EMA Crossover", "EMA_CROSSOVER", []string{"shortPeriod", "longPeriod"}},
	TechnicalRSI:          {"RSI", "RSI", []string{"period", "oversold", "overbought"}},
	TechnicalMACD:         {"MACD", "MACD", []string{"fastPeriod", "slowPeriod", "signalPeriod"}},
	TechnicalBollinger:    {"Bollinger Bands", "BOLLINGER_BANDS", []string{"period", "stdDev"}},
	TechnicalStochastic:   {"Stochastic", "STOCHASTIC", []string{"kPeriod", "dPeriod", "oversold", "overbought"}},
	TechnicalVolumeSpike:  {"Volume Spike", "VOLUME_SPIKE", []string{"period", "multiplier"}},
}

var (
	technicalByName = make(map[string]TechnicalKind, len(technicalShapes))
	technicalByType = make(map[string]TechnicalKind, len(technicalShapes))
)

func init() {
	for kind, shape := range technicalShapes {
		technicalByName[shape.name] = kind
		technicalByType[shape.wireType] = kind
	}
}

// TechnicalKindOf resolves an editor name. Unknown names yield TechnicalUnknown.
func TechnicalKindOf(name string) TechnicalKind {
	return technicalByName[name]
}

// TechnicalNames returns the editor names with a known shape
func TechnicalNames() []string {
	names := make([]string, 0, len(technicalShapes))
	for kind := TechnicalSMACrossover; kind <= TechnicalVolumeSpike; kind++ {
		names = append(names, technicalShapes[kind].name)
	}
	return names
}

// Params returns the wire params of a known shape, nil for TechnicalUnknown
func (k TechnicalKind) Params() []string {
	return technicalShapes[k].params
}

// String returns the editor name of the kind
func (k TechnicalKind) String() string {
	if shape, ok := technicalShapes[k]; ok {
		return shape.name
	}
	return "Unknown"
}

// TechnicalType returns the wire type for an editor name.
// Unknown names are transliterated.
func TechnicalType(name string) string {
	if kind := TechnicalKindOf(name); kind != TechnicalUnknown {
		return technicalShapes[kind].wireType
	}
	return Transliterate(name)
}

// Transliterate converts a display name to UPPER_SNAKE_CASE.
// Runs of non-alphanumerics collapse to one underscore.
func Transliterate(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// titleCase is the lossy reverse of Transliterate: "MY_TYPE" -> "My Type"
func titleCase(wireType string) string {
	words := strings.FieldsFunc(wireType, func(r rune) bool { return r == '_' })
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
