package domain

// Core domain models shared by the gateway, the store and the console API.
// JSON tags match the slot format written to durable storage.

type ScanType string

const (
	ScanEmail ScanType = "EMAIL"
	ScanURL   ScanType = "URL"
	ScanFile  ScanType = "FILE"
	ScanAPI   ScanType = "API"
)

// ScanTypes lists every artifact category in display order.
var ScanTypes = []ScanType{ScanEmail, ScanURL, ScanFile, ScanAPI}

func (t ScanType) Valid() bool {
	switch t {
	case ScanEmail, ScanURL, ScanFile, ScanAPI:
		return true
	}
	return false
}

type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictDangerous  Verdict = "DANGEROUS"
)

var Verdicts = []Verdict{VerdictSafe, VerdictSuspicious, VerdictDangerous}

func (v Verdict) Valid() bool {
	switch v {
	case VerdictSafe, VerdictSuspicious, VerdictDangerous:
		return true
	}
	return false
}

// Heuristics are the three auxiliary sub-scores, each intended 0-10.
type Heuristics struct {
	LinguisticManipulation float64 `json:"linguisticManipulation"`
	LinkEntropy            float64 `json:"linkEntropy"`
	DomainMasking          float64 `json:"domainMasking"`
}

// DefaultHeuristicScore fills any sub-score the model left out.
const DefaultHeuristicScore = 5

func DefaultHeuristics() Heuristics {
	return Heuristics{
		LinguisticManipulation: DefaultHeuristicScore,
		LinkEntropy:            DefaultHeuristicScore,
		DomainMasking:          DefaultHeuristicScore,
	}
}

// Analysis is a normalized verdict as returned by the gateway.
type Analysis struct {
	Verdict     Verdict     `json:"verdict"`
	RiskScore   float64     `json:"riskScore"`
	Explanation string      `json:"explanation"`
	RedFlags    []string    `json:"redFlags"`
	Heuristics  *Heuristics `json:"heuristics,omitempty"`
}

// ScanResult is one recorded analysis.
type ScanResult struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Type        ScanType    `json:"type"`
	Verdict     Verdict     `json:"verdict"`
	RiskScore   float64     `json:"riskScore"`
	Explanation string      `json:"explanation"`
	RedFlags    []string    `json:"redFlags"`
	Heuristics  *Heuristics `json:"heuristics,omitempty"`
	UserEmail   string      `json:"userEmail,omitempty"`
}

// NewScan builds the partial scan handed to the store; id, date and user
// are assigned there.
func NewScan(t ScanType, a Analysis) ScanResult {
	return ScanResult{
		Type:        t,
		Verdict:     a.Verdict,
		RiskScore:   a.RiskScore,
		Explanation: a.Explanation,
		RedFlags:    a.RedFlags,
		Heuristics:  a.Heuristics,
	}
}

type BlogPost struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

type ContactMessage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Date    string `json:"date"`
	IsRead  bool   `json:"isRead"`
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

type SiteSettings struct {
	PrimaryColor    string `json:"primaryColor"`
	Theme           Theme  `json:"theme"`
	SiteName        string `json:"siteName"`
	MetaDescription string `json:"metaDescription"`
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	PrimaryColor    *string `json:"primaryColor,omitempty"`
	Theme           *Theme  `json:"theme,omitempty"`
	SiteName        *string `json:"siteName,omitempty"`
	MetaDescription *string `json:"metaDescription,omitempty"`
}

type User struct {
	Email string `json:"email"`
}

type Session struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}
