package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSlots_Route(t *testing.T) {
	testCases := []struct {
		name        string
		text        string
		origin      string
		destination string
		here        bool
	}{
		{name: "From until", text: "인천공항에서 카이탁 크루즈 터미널까지", origin: "인천공항", destination: "카이탁 크루즈 터미널"},
		{name: "From with request", text: "인천공항에서 카이탁 크루즈 터미널까지 어떻게 가?", origin: "인천공항", destination: "카이탁 크루즈 터미널"},
		{name: "From with direction particle", text: "김포공항에서 서울역으로", origin: "김포공항", destination: "서울역"},
		{name: "Buteo marker", text: "하네다부터 요코하마 오산바시 터미널까지", origin: "하네다", destination: "요코하마 오산바시 터미널"},
		{name: "Leftmost split only", text: "공항에서 호텔에서 가까운 역까지", origin: "공항", destination: "호텔에서 가까운 역"},
		{name: "Request phrase without marker", text: "인천공항에서 포트미애미 터미널 가는 법", origin: "인천공항", destination: "포트미애미 터미널"},
		{name: "Arrow", text: "ICN -> Kai Tak", origin: "ICN", destination: "Kai Tak"},
		{name: "Unicode arrow", text: "하네다 → 요코하마", origin: "하네다", destination: "요코하마"},
		{name: "Current location", text: "현재 위치에서 하네다 공항까지", origin: "현재 위치", destination: "하네다 공항", here: true},
		{name: "Here", text: "여기서 카이탁까지 어떻게 가", origin: "여기", destination: "카이탁", here: true},
		{name: "Suffix only", text: "카이탁 크루즈 터미널까지", destination: "카이탁 크루즈 터미널"},
		{name: "Suffix with particle", text: "하네다 공항은 어디야", destination: "하네다 공항"},
		{name: "Longest suffix prefix", text: "하네다 공항 국제선 터미널 가는 길", destination: "하네다 공항 국제선 터미널"},
		{name: "English suffix", text: "Haneda Airport directions", destination: "Haneda Airport"},
		{name: "Request only", text: "카이탁까지 어떻게 가?", destination: "카이탁"},
		{name: "Nothing", text: "안녕하세요"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := ExtractSlots(tc.text)
			assert.Equal(t, tc.origin, s.Origin)
			assert.Equal(t, tc.destination, s.Destination)
			assert.Equal(t, tc.here, s.OriginIsHere)
		})
	}
}

func TestExtractSlots_NearbyScenario(t *testing.T) {
	s := ExtractSlots("도쿄 국제공항 근처 맛집")

	assert.Equal(t, CategoryFood, s.Category)
	assert.Equal(t, "맛집", s.CategoryKeyword)
	assert.Equal(t, "도쿄", s.City)
	assert.Equal(t, "Japan", s.Country)
	assert.Equal(t, "JP", s.CountryCode)
	assert.Equal(t, "도쿄 국제공항", s.Destination)
}

func TestExtractSlots_Empty(t *testing.T) {
	for _, text := range []string{"", "   "} {
		assert.True(t, ExtractSlots(text).IsEmpty(), "text %q", text)
	}
}

func TestExtractSlots_Country(t *testing.T) {
	testCases := []struct {
		name    string
		text    string
		country string
		code    string
		city    string
	}{
		{name: "Leftmost country wins", text: "일본 말고 대만 맛집", country: "Japan", code: "JP"},
		{name: "Explicit country beats city", text: "후쿠오카 말고 대만 여행", country: "Taiwan", code: "TW", city: "후쿠오카"},
		{name: "City implies country", text: "싱가포르 마리나베이", country: "Singapore", code: "SG", city: "싱가포르"},
		{name: "English alias", text: "cafes in Japan", country: "Japan", code: "JP"},
		{name: "Latin alias needs word boundary", text: "fukuoka ramen", country: "Japan", code: "JP", city: "fukuoka"},
		{name: "Literal city kept", text: "TOKYO station", country: "Japan", code: "JP", city: "TOKYO"},
		{name: "No country", text: "카이탁 사진", country: "", code: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := ExtractSlots(tc.text)
			assert.Equal(t, tc.country, s.Country)
			assert.Equal(t, tc.code, s.CountryCode)
			assert.Equal(t, tc.city, s.City)
		})
	}
}

func TestExtractSlots_CategoryLastMatchWins(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		category Category
		keyword  string
	}{
		{name: "Food", text: "근처 맛집", category: CategoryFood, keyword: "맛집"},
		{name: "Cafe after food", text: "맛집이랑 카페", category: CategoryCafe, keyword: "카페"},
		{name: "Shopping beats cafe", text: "카페 있는 쇼핑몰", category: CategoryShopping, keyword: "쇼핑"},
		{name: "Order is fixed, not positional", text: "쇼핑 후에 맛집", category: CategoryShopping, keyword: "쇼핑"},
		{name: "English", text: "coffee nearby", category: CategoryCafe, keyword: "coffee"},
		{name: "None", text: "하네다 공항", category: "", keyword: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := ExtractSlots(tc.text)
			assert.Equal(t, tc.category, s.Category)
			assert.Equal(t, tc.keyword, s.CategoryKeyword)
		})
	}
}

func TestExtractSlots_NearbyKeyword(t *testing.T) {
	assert.Equal(t, "편의점", ExtractSlots("근처 편의점").NearbyKeyword)
	assert.Equal(t, "호텔", ExtractSlots("호텔 근처 편의점").NearbyKeyword)
	assert.Equal(t, "약국", ExtractSlots("주변 약국 어디야").NearbyKeyword)
	assert.Empty(t, ExtractSlots("근처 뭐 있어").NearbyKeyword)
}

func TestExtractShowTarget(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{name: "Show suffix", text: "전혀모르는장소 보여줘", want: "전혀모르는장소"},
		{name: "Polite", text: "카이탁 크루즈 터미널 보여주세요", want: "카이탁 크루즈 터미널"},
		{name: "Photo", text: "하네다 공항 사진", want: "하네다 공항"},
		{name: "Photo and show", text: "카이탁 사진 좀 보여줘", want: "카이탁"},
		{name: "Possessive", text: "마리나베이의 사진", want: "마리나베이"},
		{name: "Show me", text: "show me Marina Bay Cruise Centre", want: "Marina Bay Cruise Centre"},
		{name: "Show me photos", text: "Show me Kai Tak photos", want: "Kai Tak"},
		{name: "Category target kept", text: "후쿠오카 맛집 보여줘", want: "후쿠오카 맛집"},
		{name: "Nothing left", text: "사진 보여줘", want: ""},
		{name: "No show phrase", text: "카이탁", want: ""},
		{name: "Empty", text: "", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractShowTarget(tc.text))
		})
	}
}

func TestContainsCategoryWord(t *testing.T) {
	assert.True(t, ContainsCategoryWord("후쿠오카 맛집"))
	assert.True(t, ContainsCategoryWord("Osaka shopping"))
	assert.False(t, ContainsCategoryWord("카이탁 크루즈 터미널"))
}

func TestCountryLookups(t *testing.T) {
	c, ok := CountryByName("japan")
	assert.True(t, ok)
	assert.Equal(t, "JP", c.Code)

	c, ok = CountryByName("홍콩")
	assert.True(t, ok)
	assert.Equal(t, "Hong Kong", c.Name)

	_, ok = CountryByCode("ZZ")
	assert.False(t, ok)
}
