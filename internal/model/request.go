package model

type CreateRecordRequest struct {
	Label     string `json:"label"`
	Detail    string `json:"detail"`
	MediaPath string `json:"image"`
}

type FilterRequest struct {
	Category string `json:"category"`
}

type ToggleRequest struct {
	Key string `json:"key"`
}

type IntentRequest struct {
	Action Action `json:"action"`
	Key    string `json:"key"`
}

type BulkRequest struct {
	Action Action   `json:"action"`
	Keys   []string `json:"keys,omitempty"`
}
