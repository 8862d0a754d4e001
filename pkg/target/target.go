// Package target contains the per-(user, tenant) delivery registry: the
// Target/Device model, the narrow document-store contract it is persisted
// through, and the Registry owning every mutation and token-resolution query.
package target

import "encoding/json"

// Target aggregates every delivery surface registered for one user within one
// tenant application. At most one Target exists per (userId, appId) pair; a
// Target with no devices and no topics is still a valid record.
type Target struct {
	ID      string   `bson:"_id" json:"id"`
	UserID  string   `bson:"userId" json:"userId"`
	AppID   string   `bson:"appId" json:"appId"`
	Devices []Device `bson:"devices" json:"devices"`
	Topics  []string `bson:"topics,omitempty" json:"topics,omitempty"`

	// Auxiliary contact channels, opaque to the resolution logic.
	Emails []string `bson:"emails,omitempty" json:"emails,omitempty"`
	SMS    []string `bson:"sms,omitempty" json:"sms,omitempty"`
}

// Device is a value object embedded in Target.Devices, at most one per
// deviceId. Only RegisterToken changes on re-registration.
type Device struct {
	DeviceID      string `bson:"deviceId" json:"deviceId"`
	RegisterToken string `bson:"registerToken" json:"registerToken"`
	Model         string `bson:"model,omitempty" json:"model,omitempty"`
	Platform      string `bson:"platform,omitempty" json:"platform,omitempty"`
}

// DocumentID derives the composite primary key for a (userId, appId) pair.
func DocumentID(userID, appID string) string {
	return userID + "-" + appID
}

// DeviceIndex returns the position of deviceID in the device sequence, or -1.
func (t *Target) DeviceIndex(deviceID string) int {
	for i, d := range t.Devices {
		if d.DeviceID == deviceID {
			return i
		}
	}
	return -1
}

// Tokens flattens the register tokens of every device, preserving the
// registration order.
func (t *Target) Tokens() []string {
	tokens := make([]string, 0, len(t.Devices))
	for _, d := range t.Devices {
		tokens = append(tokens, d.RegisterToken)
	}
	return tokens
}

// TopicList accepts either a single topic string or a sequence of topics on
// the wire and normalizes both to a slice.
type TopicList []string

func (l *TopicList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = TopicList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = TopicList(many)
	return nil
}
