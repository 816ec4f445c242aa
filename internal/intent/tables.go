package intent

import (
	"regexp"
	"sort"
	"strings"
)

// Country is one row of the country table. Name matches the dataset's
// country field.
type Country struct {
	Code    string
	Name    string
	Aliases []string
}

// City is one row of the city table.
type City struct {
	Name        string
	CountryCode string
	Aliases     []string
}

// Category is a place category with its trigger words.
type Category string

const (
	CategoryFood     Category = "food"
	CategoryCafe     Category = "cafe"
	CategoryKids     Category = "kids"
	CategorySights   Category = "sights"
	CategoryShopping Category = "shopping"
)

var countries = []Country{
	{Code: "KR", Name: "South Korea", Aliases: []string{"대한민국", "한국", "south korea", "korea"}},
	{Code: "JP", Name: "Japan", Aliases: []string{"일본", "japan"}},
	{Code: "HK", Name: "Hong Kong", Aliases: []string{"홍콩", "hong kong", "hongkong"}},
	{Code: "TW", Name: "Taiwan", Aliases: []string{"대만", "타이완", "taiwan"}},
	{Code: "CN", Name: "China", Aliases: []string{"중국", "china"}},
	{Code: "SG", Name: "Singapore", Aliases: []string{"싱가포르", "싱가폴", "singapore"}},
	{Code: "US", Name: "United States", Aliases: []string{"미국", "united states", "usa", "america"}},
	{Code: "CA", Name: "Canada", Aliases: []string{"캐나다", "canada"}},
	{Code: "MX", Name: "Mexico", Aliases: []string{"멕시코", "mexico"}},
	{Code: "BS", Name: "Bahamas", Aliases: []string{"바하마", "bahamas"}},
	{Code: "JM", Name: "Jamaica", Aliases: []string{"자메이카", "jamaica"}},
	{Code: "GB", Name: "United Kingdom", Aliases: []string{"영국", "united kingdom", "uk"}},
	{Code: "FR", Name: "France", Aliases: []string{"프랑스", "france"}},
	{Code: "IT", Name: "Italy", Aliases: []string{"이탈리아", "italy"}},
	{Code: "ES", Name: "Spain", Aliases: []string{"스페인", "spain"}},
	{Code: "DE", Name: "Germany", Aliases: []string{"독일", "germany"}},
	{Code: "GR", Name: "Greece", Aliases: []string{"그리스", "greece"}},
	{Code: "TR", Name: "Turkey", Aliases: []string{"튀르키예", "터키", "turkey"}},
	{Code: "NO", Name: "Norway", Aliases: []string{"노르웨이", "norway"}},
	{Code: "AE", Name: "United Arab Emirates", Aliases: []string{"아랍에미리트", "uae"}},
	{Code: "AU", Name: "Australia", Aliases: []string{"호주", "australia"}},
	{Code: "NZ", Name: "New Zealand", Aliases: []string{"뉴질랜드", "new zealand"}},
	{Code: "TH", Name: "Thailand", Aliases: []string{"태국", "thailand"}},
	{Code: "VN", Name: "Vietnam", Aliases: []string{"베트남", "vietnam"}},
	{Code: "PH", Name: "Philippines", Aliases: []string{"필리핀", "philippines"}},
	{Code: "MY", Name: "Malaysia", Aliases: []string{"말레이시아", "malaysia"}},
	{Code: "ID", Name: "Indonesia", Aliases: []string{"인도네시아", "indonesia"}},
}

var cities = []City{
	{Name: "Tokyo", CountryCode: "JP", Aliases: []string{"도쿄", "동경", "tokyo"}},
	{Name: "Osaka", CountryCode: "JP", Aliases: []string{"오사카", "osaka"}},
	{Name: "Fukuoka", CountryCode: "JP", Aliases: []string{"후쿠오카", "fukuoka"}},
	{Name: "Yokohama", CountryCode: "JP", Aliases: []string{"요코하마", "yokohama"}},
	{Name: "Kyoto", CountryCode: "JP", Aliases: []string{"교토", "kyoto"}},
	{Name: "Seoul", CountryCode: "KR", Aliases: []string{"서울", "seoul"}},
	{Name: "Busan", CountryCode: "KR", Aliases: []string{"부산", "busan"}},
	{Name: "Incheon", CountryCode: "KR", Aliases: []string{"인천", "incheon"}},
	{Name: "Jeju", CountryCode: "KR", Aliases: []string{"제주", "jeju"}},
	{Name: "Hong Kong", CountryCode: "HK", Aliases: []string{"홍콩", "hong kong"}},
	{Name: "Taipei", CountryCode: "TW", Aliases: []string{"타이베이", "타이페이", "taipei"}},
	{Name: "Keelung", CountryCode: "TW", Aliases: []string{"지룽", "기륭", "keelung"}},
	{Name: "Shanghai", CountryCode: "CN", Aliases: []string{"상하이", "shanghai"}},
	{Name: "Singapore", CountryCode: "SG", Aliases: []string{"싱가포르", "singapore"}},
	{Name: "Miami", CountryCode: "US", Aliases: []string{"마이애미", "미애미", "miami"}},
	{Name: "Fort Lauderdale", CountryCode: "US", Aliases: []string{"포트로더데일", "fort lauderdale"}},
	{Name: "New York", CountryCode: "US", Aliases: []string{"뉴욕", "new york"}},
	{Name: "Seattle", CountryCode: "US", Aliases: []string{"시애틀", "seattle"}},
	{Name: "Los Angeles", CountryCode: "US", Aliases: []string{"로스앤젤레스", "los angeles"}},
	{Name: "Vancouver", CountryCode: "CA", Aliases: []string{"밴쿠버", "vancouver"}},
	{Name: "Barcelona", CountryCode: "ES", Aliases: []string{"바르셀로나", "barcelona"}},
	{Name: "Rome", CountryCode: "IT", Aliases: []string{"로마", "rome"}},
	{Name: "Civitavecchia", CountryCode: "IT", Aliases: []string{"치비타베키아", "civitavecchia"}},
	{Name: "Venice", CountryCode: "IT", Aliases: []string{"베니스", "베네치아", "venice"}},
	{Name: "Naples", CountryCode: "IT", Aliases: []string{"나폴리", "naples"}},
	{Name: "Paris", CountryCode: "FR", Aliases: []string{"파리", "paris"}},
	{Name: "London", CountryCode: "GB", Aliases: []string{"런던", "london"}},
	{Name: "Sydney", CountryCode: "AU", Aliases: []string{"시드니", "sydney"}},
	{Name: "Dubai", CountryCode: "AE", Aliases: []string{"두바이", "dubai"}},
	{Name: "Bangkok", CountryCode: "TH", Aliases: []string{"방콕", "bangkok"}},
	{Name: "Da Nang", CountryCode: "VN", Aliases: []string{"다낭", "da nang"}},
}

// categoryOrder is the evaluation order; a later match replaces an earlier one.
var categoryOrder = []Category{CategoryFood, CategoryCafe, CategoryKids, CategorySights, CategoryShopping}

var categoryKeywords = map[Category][]string{
	CategoryFood:     {"맛집", "식당", "음식", "레스토랑", "restaurant", "food"},
	CategoryCafe:     {"카페", "커피", "스타벅스", "cafe", "coffee"},
	CategoryKids:     {"아이", "키즈", "어린이", "놀이터", "kids", "playground"},
	CategorySights:   {"관광지", "명소", "볼거리", "관광", "sights", "attraction"},
	CategoryShopping: {"쇼핑", "마트", "시장", "백화점", "아울렛", "shopping", "mall", "market"},
}

var nearbyPlaceKeywords = []string{"스타벅스", "카페", "편의점", "마트", "market", "식당", "약국", "호텔"}

// aliasMatcher finds the leftmost alias of a table in free text.
type aliasMatcher struct {
	pattern *regexp.Regexp
	lookup  map[string]int
}

// newAliasMatcher indexes aliases by row. Latin aliases only match whole
// words so "uk" does not fire inside "fukuoka".
func newAliasMatcher(rows [][]string) *aliasMatcher {
	m := &aliasMatcher{lookup: make(map[string]int)}

	var all []string
	for i, aliases := range rows {
		for _, a := range aliases {
			key := strings.ToLower(a)
			if _, dup := m.lookup[key]; dup {
				continue
			}
			m.lookup[key] = i
			all = append(all, key)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return len([]rune(all[i])) > len([]rune(all[j]))
	})

	parts := make([]string, len(all))
	for i, a := range all {
		q := regexp.QuoteMeta(a)
		if isLatin(a) {
			q = `\b` + q + `\b`
		}
		parts[i] = q
	}
	m.pattern = regexp.MustCompile("(?i)(?:" + strings.Join(parts, "|") + ")")
	return m
}

// find returns the row and literal text of the leftmost alias, or -1.
func (m *aliasMatcher) find(text string) (int, string) {
	loc := m.pattern.FindStringIndex(text)
	if loc == nil {
		return -1, ""
	}
	lit := text[loc[0]:loc[1]]
	row, ok := m.lookup[strings.ToLower(lit)]
	if !ok {
		return -1, ""
	}
	return row, lit
}

func isLatin(s string) bool {
	for _, r := range s {
		if r > 0x7f {
			return false
		}
	}
	return true
}

var (
	countryMatcher = func() *aliasMatcher {
		rows := make([][]string, len(countries))
		for i, c := range countries {
			rows[i] = c.Aliases
		}
		return newAliasMatcher(rows)
	}()

	cityMatcher = func() *aliasMatcher {
		rows := make([][]string, len(cities))
		for i, c := range cities {
			rows[i] = c.Aliases
		}
		return newAliasMatcher(rows)
	}()

	categoryPatterns = func() map[Category]*regexp.Regexp {
		out := make(map[Category]*regexp.Regexp, len(categoryKeywords))
		for c, kws := range categoryKeywords {
			out[c] = buildKeywordRegex(kws)
		}
		return out
	}()

	nearbyPlacePattern = buildKeywordRegex(nearbyPlaceKeywords)
)

// CountryByCode looks up a country row by ISO code.
func CountryByCode(code string) (Country, bool) {
	for _, c := range countries {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// CountryByName looks up a country row by English name or alias.
func CountryByName(name string) (Country, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range countries {
		if strings.ToLower(c.Name) == n {
			return c, true
		}
		for _, a := range c.Aliases {
			if strings.ToLower(a) == n {
				return c, true
			}
		}
	}
	return Country{}, false
}

// Spellings lists every way a dataset may write the country: the English
// name, the aliases and the ISO code.
func (c Country) Spellings() []string {
	out := make([]string, 0, len(c.Aliases)+2)
	out = append(out, c.Name, c.Code)
	return append(out, c.Aliases...)
}

// ContainsCategoryWord reports whether text mentions any category keyword.
func ContainsCategoryWord(text string) bool {
	for _, c := range categoryOrder {
		if categoryPatterns[c].MatchString(text) {
			return true
		}
	}
	return false
}
