package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoticeIDRoundTrip(t *testing.T) {
	id := NoticeID("acad1", 5, 12)
	assert.Equal(t, "acad1_5_12", id)

	academy, lecture, num, err := ParseNoticeID(id)
	require.NoError(t, err)
	assert.Equal(t, "acad1", academy)
	assert.Equal(t, int64(5), lecture)
	assert.Equal(t, 12, num)
}

func TestParseNoticeIDFromRight(t *testing.T) {
	academy, lecture, num, err := ParseNoticeID("my_academy_0_3")
	require.NoError(t, err)
	assert.Equal(t, "my_academy", academy)
	assert.Equal(t, AcademyWideLecture, lecture)
	assert.Equal(t, 3, num)
}

func TestParseNoticeIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "abc", "_1_2", "a_x_1", "a_1_0", "a_1_x"} {
		_, _, _, err := ParseNoticeID(id)
		assert.Error(t, err, id)
	}
}

func TestNoticeObjectKey(t *testing.T) {
	assert.Equal(t, "notices/acad1/5/2/report.pdf", NoticeObjectKey("acad1", 5, 2, "report.pdf"))
}
