package database

import (
	"bufio"
	"io"

	"github.com/spf13/afero"
	"github.com/tauraamui/scandaemon/pkg/database/dbconn"
)

var DSN = dsn

func OverloadUC(overload func() (string, error)) func() {
	ucRef := uc
	uc = overload
	return func() { uc = ucRef }
}

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

func OverloadOpenDBConnection(overload func(string) (dbconn.GormWrapper, error)) func() {
	openDBConnectionRef := openDBConnection
	openDBConnection = overload
	return func() { openDBConnection = openDBConnectionRef }
}

func OverloadAdminPrompt(lines io.Reader, secrets func(label string) (string, error)) func() {
	promptRef := prompt
	prompt = adminPrompt{lines: stdinLineReader{r: bufio.NewReader(lines)}, secrets: secretFunc(secrets)}
	return func() { prompt = promptRef }
}

type secretFunc func(string) (string, error)

func (f secretFunc) ReadSecret(label string) (string, error) { return f(label) }
