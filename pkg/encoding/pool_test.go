package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuffer_IsEmpty(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("<PAYMENT/>")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Zero(t, again.Len())
	PutBuffer(again)
}

func TestDetach_SurvivesReuse(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("<AUTH/>")
	out := Detach(buf)
	PutBuffer(buf)

	reused := GetBuffer()
	reused.WriteString("XXXXXXX")
	assert.Equal(t, "<AUTH/>", string(out))
	PutBuffer(reused)
}

func TestPutBuffer_DropsLargeBuffers(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, maxPooledBuffer+1))
	assert.NotPanics(t, func() { PutBuffer(big) })
}
