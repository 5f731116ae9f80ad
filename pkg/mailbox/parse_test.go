package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCode(t *testing.T) {
	code, ok := ExtractCode("인증번호 [000111] 입니다")
	assert.True(t, ok)
	assert.Equal(t, "000111", code)

	code, ok = ExtractCode("000111")
	assert.True(t, ok)
	assert.Equal(t, "000111", code)

	_, ok = ExtractCode("call 01012345678 now")
	assert.False(t, ok)

	_, ok = ExtractCode("12345")
	assert.False(t, ok)
}

func TestPhoneFromSender(t *testing.T) {
	assert.Equal(t, "1234567890", PhoneFromSender("1234567890@vtext.example"))
	assert.Equal(t, "01012345678", PhoneFromSender("010-1234-5678@mms.example"))
	assert.Equal(t, "821012345678", PhoneFromSender("+82 10 1234 5678"))
}
