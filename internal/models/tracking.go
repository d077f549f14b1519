package models

// Location is the cached result of the one-time geo-IP lookup, persisted
// under the "location" storage key and attached to server-side conversion
// events.
type Location struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// ConversionUserData identifies the visitor on a server-side conversion
// event.
type ConversionUserData struct {
	ClientIPAddress string `json:"client_ip_address"`
	ClientUserAgent string `json:"client_user_agent"`
}

// ConversionEvent is one element of the conversion API's data array.
type ConversionEvent struct {
	EventID      string             `json:"event_id"`
	EventName    string             `json:"event_name"`
	EventTime    int64              `json:"event_time"`
	ActionSource string             `json:"action_source"`
	UserData     ConversionUserData `json:"user_data"`
	CustomData   map[string]any     `json:"custom_data,omitempty"`
}
