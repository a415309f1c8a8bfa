package yahoo

// Response represents the raw JSON response of the Yahoo Finance chart API.
// Only the meta block is read; it carries the regular-market snapshot of the
// current trading day.
type Response struct {
	Chart struct {
		Result []struct {
			Meta Meta `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Meta is the symbol metadata of a chart result. Numeric fields are pointers
// because Yahoo omits them for illiquid or delisted symbols.
type Meta struct {
	Currency             string   `json:"currency"`
	Symbol               string   `json:"symbol"`
	ExchangeName         string   `json:"exchangeName"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
	RegularMarketVolume  *int64   `json:"regularMarketVolume"`
}

// Price is the price attributes of one symbol.
type Price struct {
	Symbol   string
	Currency string
	Current  float64
	DayHigh  *float64
	DayLow   *float64
	Volume   *int64
}
