package chat

// User-facing copy. The product speaks Korean.
const (
	msgClarifyNavigate = "출발지와 목적지를 정확히 알려주시면 길찾기를 도와드릴게요. (예: 인천공항에서 포트미애미 터미널까지)"
	msgClarifyShow     = `무엇을 보여드릴까요? 예: "후쿠오카 맛집 보여줘"`
	msgClarifyNearby   = `어떤 곳을 찾으시나요? 예: "도쿄 국제공항 근처 맛집"`

	msgNavigateFound       = "🧭 %s에서 %s까지 길찾기 정보를 찾았어요!"
	msgNavigateFoundNoFrom = "🧭 %s까지 길찾기 정보를 찾았어요!"
	msgNavigateHint        = "실시간 소요시간·영업시간은 링크에서 자동 갱신됩니다."

	msgNotFound     = "'%s' 장소를 찾지 못했어요. 지도 검색으로 바로 확인해 보세요."
	msgNotFoundHint = "혹시 이 장소를 찾으셨나요?"

	msgRelatedPlaces = "'%s'에 해당하는 곳이 여러 곳이에요. 아래에서 골라 주세요."
	msgRelatedHint   = "원하는 곳을 누르면 바로 길찾기가 열려요."

	msgShowFound    = "📍 %s"
	msgShowCategory = "🔎 '%s' 검색 결과를 지도와 사진으로 확인해 보세요."
	msgShowHint     = "사진은 이미지 검색 결과로 연결됩니다."

	msgNearbyAnchor = "📍 %s 근처 %s 검색 결과예요."
	msgNearbyHere   = "📍 현재 위치 근처 %s 검색 결과예요."
	msgNearbyHint   = "지도 앱에서 거리순으로 정렬하면 가장 가까운 곳부터 볼 수 있어요."

	msgHelp = "이렇게 물어보세요!\n" +
		"• 길찾기: \"인천공항에서 카이탁 크루즈 터미널까지\"\n" +
		"• 주변 검색: \"도쿄 국제공항 근처 맛집\"\n" +
		"• 장소 보기: \"하네다 공항 보여줘\""
)

// Link labels
const (
	labelDriving = "🚗 자동차"
	labelTransit = "🚌 대중교통"
	labelWalking = "🚶 도보"
	labelMap     = "🗺️ 지도에서 보기"
	labelPhotos  = "📷 사진 보기"
	labelSearch  = "🗺️ %s 검색"
)

// hereLabel replaces an origin that means the device location.
const hereLabel = "현재 위치"
