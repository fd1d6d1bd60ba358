package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/wellcheck/internal/backup"
	"github.com/julianstephens/wellcheck/internal/config"
	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/logger"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/storage"
	"github.com/julianstephens/wellcheck/internal/validation"
)

type Context struct {
	Store      storage.Provider
	Config     config.Config
	ConfigPath string

	// Now, Out and In default to the real clock and terminal.
	Now func() time.Time
	Out io.Writer
	In  io.Reader
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	_, err := c.backupManager().CreateBackup()
	if err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func (c *Context) backupManager() *backup.Manager {
	return backup.NewManager(c.Store.Path(), c.Config.LockTimeout)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return models.DateOnly(now())
}

// resolveDate accepts YYYY-MM-DD or "today".
func (c *Context) resolveDate(s string) (time.Time, error) {
	if s == "" || strings.EqualFold(s, "today") {
		return c.today(), nil
	}
	d, err := validation.ParseDate(s)
	if err != nil {
		return time.Time{}, werrors.Validation("parse date", "%v", err)
	}
	return d, nil
}

// resolveUser falls back to the configured default user.
func (c *Context) resolveUser(flag string) (string, error) {
	user := strings.TrimSpace(flag)
	if user == "" {
		user = strings.TrimSpace(c.Config.DefaultUser)
	}
	if user == "" {
		return "", werrors.Validation("resolve user", "no user given: pass --user or set default_user in %s", c.ConfigPath)
	}
	return user, nil
}

// confirm asks a y/N question on In.
func (c *Context) confirm(prompt string) (bool, error) {
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	c.printf("%s [y/N]: ", prompt)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
