package videobackend

var (
	ParseMockAddress = parseMockAddress
	RenderCode       = renderCode
	RenderCard       = renderCard
)
