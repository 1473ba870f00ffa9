package scan

type ValueType int

const (
	TypeUnknown ValueType = iota
	TypeWiFi
	TypeURL
	TypeText
	TypeContactInfo
	TypeEmail
	TypePhone
	TypeSMS
	TypeGeo
	TypeCalendarEvent
	TypeDriverLicense
)

func (t ValueType) String() string {
	switch t {
	case TypeWiFi:
		return "Wi-Fi"
	case TypeURL:
		return "URL"
	case TypeText:
		return "Text"
	case TypeContactInfo:
		return "Contact Info"
	case TypeEmail:
		return "Email"
	case TypePhone:
		return "Phone"
	case TypeSMS:
		return "SMS"
	case TypeGeo:
		return "Geo Location"
	case TypeCalendarEvent:
		return "Calendar Event"
	case TypeDriverLicense:
		return "Driver License"
	}
	return "Unknown"
}

func (t ValueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ValueType) UnmarshalText(text []byte) error {
	for v := TypeUnknown; v <= TypeDriverLicense; v++ {
		if v.String() == string(text) {
			*t = v
			return nil
		}
	}
	*t = TypeUnknown
	return nil
}

type PhoneType int

const (
	PhoneUnknown PhoneType = iota
	PhoneHome
	PhoneWork
	PhoneMobile
)

func (t PhoneType) String() string {
	switch t {
	case PhoneHome:
		return "Home"
	case PhoneWork:
		return "Work"
	case PhoneMobile:
		return "Mobile"
	}
	return "Unknown"
}

func (t PhoneType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PhoneType) UnmarshalText(text []byte) error {
	for v := PhoneUnknown; v <= PhoneMobile; v++ {
		if v.String() == string(text) {
			*t = v
			return nil
		}
	}
	*t = PhoneUnknown
	return nil
}

type EncryptionType int

const (
	EncryptionOpen EncryptionType = iota
	EncryptionWPA
	EncryptionWEP
)

func (t EncryptionType) String() string {
	switch t {
	case EncryptionWPA:
		return "WPA"
	case EncryptionWEP:
		return "WEP"
	}
	return "Open"
}

func (t EncryptionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EncryptionType) UnmarshalText(text []byte) error {
	for v := EncryptionOpen; v <= EncryptionWEP; v++ {
		if v.String() == string(text) {
			*t = v
			return nil
		}
	}
	*t = EncryptionOpen
	return nil
}

type WiFi struct {
	SSID           string         `json:"ssid"`
	Password       string         `json:"password"`
	EncryptionType EncryptionType `json:"encryption_type"`
}

type URL struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Phone struct {
	Number string    `json:"number"`
	Type   PhoneType `json:"type"`
}

type Email struct {
	Address string `json:"address"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Contact struct {
	Name         string   `json:"name"`
	Organization string   `json:"organization"`
	Phones       []Phone  `json:"phones"`
	Emails       []Email  `json:"emails"`
	URLs         []string `json:"urls"`
}

type SMS struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CalendarEvent struct {
	Summary  string `json:"summary"`
	Location string `json:"location"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type DriverLicense struct {
	LicenseNumber string `json:"license_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Gender        string `json:"gender"`
	BirthDate     string `json:"birth_date"`
	IssueDate     string `json:"issue_date"`
	ExpiryDate    string `json:"expiry_date"`
}

// Barcode is a single recognised symbol. Exactly one of the detail
// pointers is set, matching ValueType, except for Text and Unknown.
type Barcode struct {
	Format        string         `json:"format"`
	ValueType     ValueType      `json:"value_type"`
	RawValue      string         `json:"raw_value"`
	DisplayValue  string         `json:"display_value"`
	WiFi          *WiFi          `json:"wifi,omitempty"`
	URL           *URL           `json:"url,omitempty"`
	Contact       *Contact       `json:"contact,omitempty"`
	Email         *Email         `json:"email,omitempty"`
	Phone         *Phone         `json:"phone,omitempty"`
	SMS           *SMS           `json:"sms,omitempty"`
	Geo           *Geo           `json:"geo,omitempty"`
	CalendarEvent *CalendarEvent `json:"calendar_event,omitempty"`
	DriverLicense *DriverLicense `json:"driver_license,omitempty"`
}

// New classifies raw and returns a barcode of the given symbology.
func New(format, raw string) Barcode {
	b := Classify(raw)
	b.Format = format
	return b
}
