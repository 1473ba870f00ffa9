package scan

import (
	"net/url"
	"strconv"
	"strings"
)

// Classify inspects a decoded payload and works out what kind of
// value it carries, filling in the matching detail struct.
func Classify(raw string) Barcode {
	b := Barcode{RawValue: raw, DisplayValue: raw}
	trimmed := strings.TrimSpace(raw)

	switch {
	case trimmed == "":
		b.ValueType = TypeUnknown
	case hasPrefixFold(trimmed, "WIFI:"):
		b.ValueType = TypeWiFi
		b.WiFi = parseWiFi(trimmed[len("WIFI:"):])
		b.DisplayValue = b.WiFi.SSID
	case hasPrefixFold(trimmed, "http://"), hasPrefixFold(trimmed, "https://"):
		b.ValueType = TypeURL
		b.URL = &URL{URL: trimmed}
		b.DisplayValue = trimmed
	case hasPrefixFold(trimmed, "MEBKM:"):
		b.ValueType = TypeURL
		fields := mecardFields(trimmed[len("MEBKM:"):])
		b.URL = &URL{Title: first(fields["TITLE"]), URL: first(fields["URL"])}
		b.DisplayValue = b.URL.URL
	case hasPrefixFold(trimmed, "MECARD:"):
		b.ValueType = TypeContactInfo
		b.Contact = parseMECARD(trimmed[len("MECARD:"):])
		b.DisplayValue = b.Contact.Name
	case hasPrefixFold(trimmed, "BEGIN:VCARD"):
		b.ValueType = TypeContactInfo
		b.Contact = parseVCard(trimmed)
		b.DisplayValue = b.Contact.Name
	case hasPrefixFold(trimmed, "mailto:"):
		b.ValueType = TypeEmail
		b.Email = parseMailto(trimmed)
		b.DisplayValue = b.Email.Address
	case hasPrefixFold(trimmed, "MATMSG:"):
		b.ValueType = TypeEmail
		fields := mecardFields(trimmed[len("MATMSG:"):])
		b.Email = &Email{Address: first(fields["TO"]), Subject: first(fields["SUB"]), Body: first(fields["BODY"])}
		b.DisplayValue = b.Email.Address
	case hasPrefixFold(trimmed, "tel:"):
		b.ValueType = TypePhone
		b.Phone = &Phone{Number: trimmed[len("tel:"):]}
		b.DisplayValue = b.Phone.Number
	case hasPrefixFold(trimmed, "SMSTO:"):
		b.ValueType = TypeSMS
		b.SMS = parseSMSTO(trimmed[len("SMSTO:"):])
		b.DisplayValue = b.SMS.PhoneNumber
	case hasPrefixFold(trimmed, "sms:"):
		b.ValueType = TypeSMS
		b.SMS = parseSMSURI(trimmed[len("sms:"):])
		b.DisplayValue = b.SMS.PhoneNumber
	case hasPrefixFold(trimmed, "geo:"):
		if geo, ok := parseGeo(trimmed[len("geo:"):]); ok {
			b.ValueType = TypeGeo
			b.Geo = geo
			break
		}
		b.ValueType = TypeText
	case hasPrefixFold(trimmed, "BEGIN:VEVENT"), hasPrefixFold(trimmed, "BEGIN:VCALENDAR"):
		b.ValueType = TypeCalendarEvent
		b.CalendarEvent = parseVEvent(trimmed)
		b.DisplayValue = b.CalendarEvent.Summary
	case isAAMVA(trimmed):
		b.ValueType = TypeDriverLicense
		b.DriverLicense = parseAAMVA(trimmed)
		b.DisplayValue = b.DriverLicense.LicenseNumber
	default:
		b.ValueType = TypeText
	}
	return b
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// splitEscaped splits on sep, honouring backslash escapes and removing
// them from the resulting parts.
func splitEscaped(s string, sep byte) []string {
	parts := []string{}
	sb := strings.Builder{}
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			sb.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == sep:
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}

// mecardFields parses the KEY:value;KEY:value;; layout shared by the
// WIFI, MECARD, MEBKM and MATMSG formats. Keys are upper cased.
func mecardFields(body string) map[string][]string {
	fields := map[string][]string{}
	for _, part := range splitEscaped(body, ';') {
		i := strings.IndexByte(part, ':')
		if i <= 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(part[:i]))
		fields[key] = append(fields[key], part[i+1:])
	}
	return fields
}

func parseWiFi(body string) *WiFi {
	fields := mecardFields(body)
	wifi := WiFi{SSID: first(fields["S"]), Password: first(fields["P"])}
	switch strings.ToUpper(first(fields["T"])) {
	case "WPA", "WPA2", "WPA3", "SAE":
		wifi.EncryptionType = EncryptionWPA
	case "WEP":
		wifi.EncryptionType = EncryptionWEP
	default:
		wifi.EncryptionType = EncryptionOpen
	}
	return &wifi
}

func parseMECARD(body string) *Contact {
	fields := mecardFields(body)
	contact := Contact{Organization: first(fields["ORG"]), URLs: fields["URL"]}

	name := first(fields["N"])
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = strings.TrimSpace(name[i+1:]) + " " + strings.TrimSpace(name[:i])
	}
	contact.Name = strings.TrimSpace(name)

	for _, tel := range fields["TEL"] {
		contact.Phones = append(contact.Phones, Phone{Number: tel})
	}
	for _, email := range fields["EMAIL"] {
		contact.Emails = append(contact.Emails, Email{Address: email})
	}
	return &contact
}

type contentLine struct {
	name   string
	params []string
	value  string
}

// contentLines splits vCard/iCalendar style content into its lines,
// unfolding continuation lines.
func contentLines(raw string) []contentLine {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\n ", "")
	lines := []contentLine{}
	for _, l := range strings.Split(raw, "\n") {
		i := strings.IndexByte(l, ':')
		if i <= 0 {
			continue
		}
		head := strings.Split(l[:i], ";")
		lines = append(lines, contentLine{
			name:   strings.ToUpper(strings.TrimSpace(head[0])),
			params: head[1:],
			value:  strings.TrimSpace(l[i+1:]),
		})
	}
	return lines
}

func parseVCard(raw string) *Contact {
	contact := Contact{}
	structuredName := ""
	for _, line := range contentLines(raw) {
		switch line.name {
		case "FN":
			contact.Name = line.value
		case "N":
			parts := strings.Split(line.value, ";")
			if len(parts) > 1 {
				structuredName = strings.TrimSpace(parts[1] + " " + parts[0])
			} else {
				structuredName = parts[0]
			}
		case "ORG":
			contact.Organization = strings.TrimRight(strings.ReplaceAll(line.value, ";", " "), " ")
		case "TEL":
			contact.Phones = append(contact.Phones, Phone{Number: line.value, Type: vcardPhoneType(line.params)})
		case "EMAIL":
			contact.Emails = append(contact.Emails, Email{Address: line.value})
		case "URL":
			contact.URLs = append(contact.URLs, line.value)
		}
	}
	if contact.Name == "" {
		contact.Name = structuredName
	}
	return &contact
}

func vcardPhoneType(params []string) PhoneType {
	for _, p := range params {
		p = strings.ToUpper(p)
		p = strings.TrimPrefix(p, "TYPE=")
		for _, t := range strings.Split(p, ",") {
			switch t {
			case "HOME":
				return PhoneHome
			case "WORK":
				return PhoneWork
			case "CELL", "MOBILE":
				return PhoneMobile
			}
		}
	}
	return PhoneUnknown
}

func parseMailto(raw string) *Email {
	email := Email{}
	rest := raw[len("mailto:"):]
	query := ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}
	if addr, err := url.PathUnescape(rest); err == nil {
		email.Address = addr
	} else {
		email.Address = rest
	}
	if values, err := url.ParseQuery(query); err == nil {
		email.Subject = values.Get("subject")
		email.Body = values.Get("body")
	}
	return &email
}

func parseSMSTO(body string) *SMS {
	i := strings.IndexByte(body, ':')
	if i < 0 {
		return &SMS{PhoneNumber: body}
	}
	return &SMS{PhoneNumber: body[:i], Message: body[i+1:]}
}

func parseSMSURI(body string) *SMS {
	sms := SMS{PhoneNumber: body}
	if i := strings.IndexByte(body, '?'); i >= 0 {
		sms.PhoneNumber = body[:i]
		if values, err := url.ParseQuery(body[i+1:]); err == nil {
			sms.Message = values.Get("body")
		}
	}
	return &sms
}

func parseGeo(body string) (*Geo, bool) {
	if i := strings.IndexAny(body, "?;"); i >= 0 {
		body = body[:i]
	}
	parts := strings.Split(body, ",")
	if len(parts) < 2 {
		return nil, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, false
	}
	return &Geo{Lat: lat, Lng: lng}, true
}

func parseVEvent(raw string) *CalendarEvent {
	event := CalendarEvent{}
	for _, line := range contentLines(raw) {
		switch line.name {
		case "SUMMARY":
			event.Summary = line.value
		case "LOCATION":
			event.Location = line.value
		case "DTSTART":
			event.Start = line.value
		case "DTEND":
			event.End = line.value
		}
	}
	return &event
}

func isAAMVA(raw string) bool {
	return strings.HasPrefix(raw, "@") && (strings.Contains(raw, "ANSI ") || strings.Contains(raw, "AAMVA"))
}

// parseAAMVA reads the driver license subfile of a PDF417 payload
// following the AAMVA card design standard.
func parseAAMVA(raw string) *DriverLicense {
	dl := DriverLicense{}
	lines := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' || r == 0x1e })
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "DLDAQ"); i >= 0 {
			line = line[i+2:]
		}
		if len(line) < 3 {
			continue
		}
		id, value := line[:3], strings.TrimSpace(line[3:])
		switch id {
		case "DAQ":
			dl.LicenseNumber = value
		case "DCS":
			dl.LastName = value
		case "DAC", "DCT":
			if dl.FirstName == "" {
				dl.FirstName = value
			}
		case "DBC":
			dl.Gender = aamvaGender(value)
		case "DBB":
			dl.BirthDate = value
		case "DBD":
			dl.IssueDate = value
		case "DBA":
			dl.ExpiryDate = value
		}
	}
	return &dl
}

func aamvaGender(v string) string {
	switch v {
	case "1", "M":
		return "Male"
	case "2", "F":
		return "Female"
	}
	return v
}
