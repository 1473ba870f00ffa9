package log_test

import (
	"testing"

	"github.com/matryer/is"
	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/scandaemon/pkg/log"
)

func TestSetLevel(t *testing.T) {
	is := is.New(t)
	existingLoggingLevel := logging.CurrentLoggingLevel
	defer func() { logging.CurrentLoggingLevel = existingLoggingLevel }()

	tests := []struct {
		name string
		want interface{}
	}{
		{name: "info", want: logging.InfoLevel},
		{name: "WARN", want: logging.WarnLevel},
		{name: "debug", want: logging.DebugLevel},
		{name: "silent", want: logging.SilentLevel},
		{name: "", want: logging.WarnLevel},
		{name: "loud", want: logging.WarnLevel},
	}
	for _, tt := range tests {
		log.SetLevel(tt.name)
		is.Equal(interface{}(logging.CurrentLoggingLevel), tt.want)
	}
}
