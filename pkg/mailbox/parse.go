package mailbox

import (
	"regexp"
	"strings"
)

var codePattern = regexp.MustCompile(`(?:^|\D)(\d{6})(?:\D|$)`)

// ExtractCode returns the first standalone six digit code in text.
func ExtractCode(text string) (string, bool) {
	m := codePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// PhoneFromSender derives the phone number from an SMS gateway sender address
// such as "01012345678@mms.example.com". Non digits are dropped.
func PhoneFromSender(address string) string {
	local := address
	if at := strings.LastIndex(address, "@"); at >= 0 {
		local = address[:at]
	}
	return NormalizePhone(local)
}

// NormalizePhone keeps only the digits of phone.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
