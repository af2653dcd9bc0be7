package model

// GenerationMetadata carries diagnostic key/value pairs alongside a
// provider result. Values are strings so they can be logged and
// displayed without further conversion.
type GenerationMetadata map[string]string

const (
	MetadataKeyProvider   = "provider"
	MetadataKeyModel      = "model"
	MetadataKeyLatencyMs  = "latency_ms"
	MetadataKeyRequestID  = "request_id"
	MetadataKeyStages     = "stages"
	MetadataKeyStatusCode = "status_code"
)

// Merge copies entries from other into meta, prefixing keys with the
// given prefix. Used to keep stage-1 metadata visible on a two-stage
// result.
func (m GenerationMetadata) Merge(prefix string, other GenerationMetadata) {
	if m == nil {
		return
	}
	for key, value := range other {
		m[prefix+key] = value
	}
}
