package domain

// Review only carries the publish timestamp; the field mask drops the rest.
type Review struct {
	PublishTime string `json:"publishTime,omitempty"` // RFC3339
}
