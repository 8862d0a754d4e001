package notify

import "github.com/tribeca/notifier/pkg/dispatch"

// Fixed app-level fallbacks for notification fields the caller leaves unset.
// Tag has no default.
const (
	DefaultTitle = "Tribeca says"
	DefaultBody  = "You have received a Tribeca notification."
	DefaultIcon  = "icon"
)

// Body is the optional notify request body. A nil body behaves exactly like
// an empty object.
type Body struct {
	Notification *Notification     `json:"notification"`
	Data         map[string]string `json:"data"`
	ExcludeUsers []string          `json:"excludeUsers"`
}

// Notification carries the caller's display overrides.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Tag   string `json:"tag"`
}

// BuildPayload applies the fixed defaults to an optional request body.
func BuildPayload(body *Body) dispatch.Payload {
	payload := dispatch.Payload{
		Notification: dispatch.Notification{
			Title: DefaultTitle,
			Body:  DefaultBody,
			Icon:  DefaultIcon,
		},
		Data: map[string]string{},
	}
	if body == nil {
		return payload
	}
	if n := body.Notification; n != nil {
		if n.Title != "" {
			payload.Notification.Title = n.Title
		}
		if n.Body != "" {
			payload.Notification.Body = n.Body
		}
		if n.Icon != "" {
			payload.Notification.Icon = n.Icon
		}
		payload.Notification.Tag = n.Tag
	}
	if body.Data != nil {
		payload.Data = body.Data
	}
	return payload
}
