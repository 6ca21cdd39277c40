package domain

// LoadLevel is a human-readable crowd tier with its status indicator.
type LoadLevel struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

var (
	// LoadUnknown is used when no popularity value is available.
	LoadUnknown = LoadLevel{Label: "לא ידוע", Emoji: "⚪️"}
	// LoadLow is a popularity below 30.
	LoadLow = LoadLevel{Label: "נמוך", Emoji: "🟢"}
	// LoadMedium is a popularity from 30 to 59.
	LoadMedium = LoadLevel{Label: "בינוני", Emoji: "🟡"}
	// LoadHigh is a popularity of 60 and above.
	LoadHigh = LoadLevel{Label: "גבוה", Emoji: "🔴"}
)

// ClassifyLoad maps an optional popularity percentage to a load tier.
func ClassifyLoad(popularity *int) LoadLevel {
	switch {
	case popularity == nil:
		return LoadUnknown
	case *popularity < 30:
		return LoadLow
	case *popularity < 60:
		return LoadMedium
	default:
		return LoadHigh
	}
}
