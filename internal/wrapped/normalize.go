package wrapped

import (
	"strings"

	"diningwrapped/internal/getapi"
)

// exclusionKeywords drop administrative, non-dining records entirely: card
// office operations, print services, generic deposits.
var exclusionKeywords = []string{
	"papercut",
	"dining services",
	"deposit",
	"get location",
	"card services",
}

// locationRule maps raw location names onto one canonical display name. A
// record matches when its lowercased name contains any keyword and none of
// the exclude keywords.
type locationRule struct {
	keywords  []string
	exclude   []string
	canonical string
}

// locationRules is evaluated in order, first match wins. Order matters: some
// raw names satisfy several keyword sets, so a more specific variant must sit
// above its superset ("blend express" above "blend").
var locationRules = []locationRule{
	{keywords: []string{"blend express", "blendexpress"}, canonical: "The Blend Express"},
	{keywords: []string{"blend"}, exclude: []string{"express"}, canonical: "The Blend"},
	{keywords: []string{"emporium"}, canonical: "The Emporium"},
	{keywords: []string{"art street", "artstreet"}, canonical: "ArtStreet Café"},
	{keywords: []string{"toss"}, canonical: "Toss"},
	{keywords: []string{"fly by", "flyby"}, canonical: "Fly By"},
	{keywords: []string{"heritage"}, canonical: "Heritage Coffeehouse"},
	{keywords: []string{"marycrest"}, canonical: "Marycrest"},
	{keywords: []string{"vwk", "virginia"}, canonical: "VWK"},
	{keywords: []string{"aubonpain", "au bon pain", "abp"}, canonical: "Au Bon Pain"},
	{keywords: []string{"landing"}, canonical: "Stu’s Landing"},
	{keywords: []string{"que"}, canonical: "‘Que"},
	{keywords: []string{"spice"}, canonical: "Spice"},
	{keywords: []string{"thechill", "the chill"}, canonical: "The CHILL"},
	{keywords: []string{"bistro"}, canonical: "Brown Street Bistro"},
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// CanonicalLocationName maps a raw location label to its canonical display
// name. The second return is false when the record is excluded. Names no
// rule matches pass through unchanged.
func CanonicalLocationName(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	name := strings.ToLower(raw)

	if containsAny(name, exclusionKeywords) {
		return "", false
	}

	for _, rule := range locationRules {
		if !containsAny(name, rule.keywords) {
			continue
		}
		if len(rule.exclude) > 0 && containsAny(name, rule.exclude) {
			continue
		}
		return rule.canonical, true
	}

	return raw, true
}

// Normalize canonicalizes and filters raw platform records. The output is an
// order-preserving subsequence of the input: each record is either
// transformed or dropped, never duplicated or reordered.
func Normalize(raw []getapi.Transaction) []Transaction {
	if len(raw) == 0 {
		return nil
	}
	normalized := make([]Transaction, 0, len(raw))
	for _, t := range raw {
		canonical, ok := CanonicalLocationName(t.LocationName)
		if !ok {
			continue
		}
		normalized = append(normalized, fromPlatform(t, canonical))
	}
	return normalized
}
