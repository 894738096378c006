package model

// Gradient is a pair of colour stops used only for card styling.
type Gradient struct {
	From string `yaml:"from" json:"from" validate:"required,hexcolor"`
	To   string `yaml:"to" json:"to" validate:"required,hexcolor"`
}

// University is one admissions-decision entity to track.
//
// Records are treated as immutable once loaded. Optional fields are resolved
// by dataset.Resolve before any consumer sees them, so Time is always set
// and Domain is already normalized.
type University struct {
	// ID is a stable identifier. Static records use their domain; custom
	// records get a uuid when they are created.
	ID string `yaml:"id,omitempty" json:"id"`

	Name   string `yaml:"name" json:"name" validate:"required,max=200"`
	Domain string `yaml:"domain" json:"domain" validate:"required,max=253,fqdn"`

	// NotificationEarly / NotificationRegular are DD-MM-YY decision dates.
	NotificationEarly   string `yaml:"notification_early,omitempty" json:"notificationEarly,omitempty"`
	NotificationRegular string `yaml:"notification_regular" json:"notificationRegular" validate:"required"`

	// ShowEarly gates whether the early date takes part in countdowns and
	// classification.
	ShowEarly bool `yaml:"show_early,omitempty" json:"showEarly"`

	// Time is the HH:MM:SS release clock at -05:00.
	Time string `yaml:"time,omitempty" json:"time"`

	NotConfirmedDate bool `yaml:"not_confirmed_date,omitempty" json:"notConfirmedDate"`

	// Priority is an explicit sort rank; lower sorts first.
	Priority *int `yaml:"priority,omitempty" json:"priority,omitempty"`

	// FileExists reports whether a locally hosted logo exists.
	FileExists bool `yaml:"file_exists,omitempty" json:"fileExists"`

	Gradient *Gradient `yaml:"gradient,omitempty" json:"gradient,omitempty"`

	// Custom marks user-submitted records.
	Custom bool `yaml:"custom,omitempty" json:"custom"`
}
