package database

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/xerror"
	"golang.org/x/term"
)

const maxPasswordAttempts = 3

var ErrPasswordMismatch = xerror.New("admin passwords did not match after 3 attempts")

type lineReader interface {
	ReadLine(label string) (string, error)
}

type secretReader interface {
	ReadSecret(label string) (string, error)
}

type adminPrompt struct {
	lines   lineReader
	secrets secretReader
}

var prompt = adminPrompt{
	lines:   stdinLineReader{r: bufio.NewReader(os.Stdin)},
	secrets: terminalSecretReader{},
}

func (p adminPrompt) adminCredentials() (models.User, error) {
	say("Please enter the scandaemon admin credentials...")
	name, err := p.lines.ReadLine("Admin username")
	if err != nil {
		return models.User{}, err
	}
	if len(name) == 0 {
		return models.User{}, xerror.New("admin username must not be blank")
	}

	for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
		password, err := p.secrets.ReadSecret("Admin password")
		if err != nil {
			return models.User{}, err
		}
		repeated, err := p.secrets.ReadSecret("Repeat admin password")
		if err != nil {
			return models.User{}, err
		}
		if password == repeated && len(password) > 0 {
			return models.User{Name: name, AuthHash: password}, nil
		}
		say("Passwords are blank or do not match, try again...")
	}
	return models.User{}, ErrPasswordMismatch
}

func say(msg string) {
	if logging.CurrentLoggingLevel != logging.SilentLevel {
		fmt.Println(msg)
	}
}

type stdinLineReader struct {
	r *bufio.Reader
}

func (s stdinLineReader) ReadLine(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := s.r.ReadString('\n')
	if err != nil && !(err == io.EOF && len(line) > 0) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

type terminalSecretReader struct{}

func (terminalSecretReader) ReadSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := term.ReadPassword(syscall.Stdin)
	say("")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
