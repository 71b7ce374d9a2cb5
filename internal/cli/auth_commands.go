package cli

import (
	"fmt"
	"strings"

	"github.com/five82/summit/internal/app"
)

func runRegister(c *command, args []string) error {
	return runSignIn(c, "register", args, func(a *app.App, user, pass string) error {
		return a.Engine.Register(c.ctx, user, pass)
	})
}

func runLogin(c *command, args []string) error {
	return runSignIn(c, "login", args, func(a *app.App, user, pass string) error {
		return a.Engine.Login(c.ctx, user, pass)
	})
}

func runSignIn(c *command, name string, args []string, call func(a *app.App, user, pass string) error) error {
	fs := c.flags(name)
	password := fs.String("password", "", "password (read from stdin when omitted)")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		return fmt.Errorf("usage: summit %s <username> [--password P]", name)
	}
	pass := *password
	if pass == "" {
		if pass, err = readSecret(c.streams.In, "password"); err != nil {
			return err
		}
	}

	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := call(a, positional[0], pass); err != nil {
		return err
	}
	c.printf("signed in as %s\n", a.Session.Username())
	if a.Session.FromEnv() {
		c.warnf("note: SUMMIT_API_KEY is set and overrides the stored key for this shell\n")
	}
	return nil
}

func runLogout(c *command, args []string) error {
	if _, err := parseArgs(c.flags("logout"), args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Engine.Logout(c.ctx); err != nil {
		return err
	}
	c.println("signed out")
	return nil
}

func runRotateKey(c *command, args []string) error {
	if _, err := parseArgs(c.flags("rotate-key"), args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Engine.RotateKey(c.ctx); err != nil {
		return err
	}
	c.println("api key rotated; the previous key no longer works")
	return nil
}

func runWhoami(c *command, args []string) error {
	fs := c.flags("whoami")
	jsonOut := fs.Bool("json", false, "print JSON output")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	a, err := c.open()
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.Session
	if *jsonOut {
		return printJSON(c.streams.Out, map[string]any{
			"username":  s.Username(),
			"logged_in": s.LoggedIn(),
			"from_env":  s.FromEnv(),
			"api_url":   s.BaseURL(),
		})
	}
	switch {
	case !s.LoggedIn():
		c.println("not logged in")
	case s.FromEnv():
		c.printf("using SUMMIT_API_KEY against %s\n", s.BaseURL())
	default:
		c.printf("%s @ %s\n", s.Username(), s.BaseURL())
	}
	return nil
}
