package models

const (
	ProviderFCM  = "fcm"
	ProviderExpo = "expo"
)

// PushToken is an addressable push endpoint. Subscription is opaque: an FCM
// registration token or an Expo push token.
type PushToken struct {
	Model
	Provider     string `json:"provider" gorm:"not null;default:fcm"`
	Subscription string `json:"subscription" gorm:"uniqueIndex;not null"`
	UserID       *uint  `json:"user_id" gorm:"index"`
}

type PushSubscriptionRequest struct {
	Provider     string `json:"provider" binding:"omitempty,oneof=fcm expo"`
	Subscription string `json:"subscription" binding:"required"`
}

// PushNotification is the single payload built per fan-out.
type PushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
}

// FanoutResult counts the outcomes of one fan-out.
type FanoutResult struct {
	Sent    int  `json:"sent"`
	Failed  int  `json:"failed"`
	Pruned  int  `json:"pruned"`
	Skipped bool `json:"skipped,omitempty"`
}

// BlogRecord is the changed row carried by a change notification.
type BlogRecord struct {
	ID      uint   `json:"id"`
	Status  string `json:"status"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Slug    string `json:"slug"`
}

// ChangeNotification is the database webhook payload.
type ChangeNotification struct {
	Type      string      `json:"type"`
	Table     string      `json:"table"`
	Record    BlogRecord  `json:"record"`
	OldRecord *BlogRecord `json:"old_record"`
}
