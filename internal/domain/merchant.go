package domain

import "time"

// Merchant owns one or more queues and configures how customers are notified.
type Merchant struct {
	ID           string
	Name         string
	Phone        string
	Timezone     string
	Notification *NotificationSettings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NotificationSettings holds merchant-configured reminder offsets and no-show
// timeouts, all in minutes.
type NotificationSettings struct {
	FirstNotification int // minutes before estimated ready, 0 disables
	FinalNotification int // minutes before estimated ready
	GracePeriod       int // minutes after table-ready before the warning
	NoShowTimeout     int // total minutes after table-ready before forced no-show
	SendNoShowWarning bool
	Templates         MessageTemplates
}

// MessageTemplates carries the notification bodies. Placeholders use the
// {Name} form and unmatched ones are left verbatim.
type MessageTemplates struct {
	Called        string
	AlmostReady   string
	TableReady    string
	NoShowWarning string
	NoShowFinal   string
}

// DefaultTemplates returns the stock message bodies used when a merchant has
// not customized them.
func DefaultTemplates() MessageTemplates {
	return MessageTemplates{
		Called:        "{CustomerName}, your table at {RestaurantName} is being prepared. Your pickup code is {Code}.",
		AlmostReady:   "{CustomerName}, your table at {RestaurantName} will be ready in about {Minutes} minutes.",
		TableReady:    "{CustomerName}, your table for {PartySize} at {RestaurantName} is ready! Please come to the host stand.",
		NoShowWarning: "{CustomerName}, we are holding your table at {RestaurantName} for {Timeout} more minutes.",
		NoShowFinal:   "{CustomerName}, your table at {RestaurantName} has been released to the next guest. You are welcome to rejoin the line.",
	}
}

// WithDefaults fills empty template bodies with the stock ones.
func (t MessageTemplates) WithDefaults() MessageTemplates {
	defaults := DefaultTemplates()
	if t.Called == "" {
		t.Called = defaults.Called
	}
	if t.AlmostReady == "" {
		t.AlmostReady = defaults.AlmostReady
	}
	if t.TableReady == "" {
		t.TableReady = defaults.TableReady
	}
	if t.NoShowWarning == "" {
		t.NoShowWarning = defaults.NoShowWarning
	}
	if t.NoShowFinal == "" {
		t.NoShowFinal = defaults.NoShowFinal
	}
	return t
}
