package cli

import (
	"context"
	"os"

	"github.com/bytebank/banksync/internal/identity"
	"github.com/bytebank/banksync/internal/viewmodel"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for name, email and password and creates an account. The
// new account becomes the signed-in identity.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	err = a.session.SignUp(ctx, identity.Credentials{Email: email, Password: string(password), Name: name})
	if err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Welcome,", name)
	return nil
}

// Login prompts for credentials and authenticates via the password provider.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	err = a.session.SignIn(ctx, identity.ProviderPassword, &identity.Credentials{Email: email, Password: string(password)})
	if err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Signed in")
	return nil
}

// Anonymous signs in as a guest principal.
func (a *App) Anonymous(ctx context.Context) error {
	if err := a.session.SignInAnonymously(ctx); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Signed in as guest")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		printlnFn(viewmodel.UserMessage(err))
		return err
	}
	printlnFn("Signed out")
	return nil
}
