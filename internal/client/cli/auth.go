package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/textdrive/internal/client/api"
	"github.com/dmitrijs2005/textdrive/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) credentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register creates an account. It does not sign in.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.drive.Register(ctx, userName, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Username, u.Role)
	return nil
}

// Login prompts for credentials and signs in. An unreachable server switches
// the app to offline mode.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.drive.Login(ctx, userName, string(password))
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return fmt.Errorf("login unsuccessful: %w", err)
	}

	a.user = u
	a.userName = u.Username
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(context.Context) error {
	a.drive.Logout()
	a.user = nil
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
