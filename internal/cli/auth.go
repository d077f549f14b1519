package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anhthuvo/storefront/internal/store/session"
	"github.com/anhthuvo/storefront/internal/store/tracking"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials, authenticates, and runs the post-login
// transitions: cart reconcile (merging the guest cart) and credit loading.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if _, err := a.session.Login(ctx, email, password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			fmt.Println("Invalid email or password.")
			return nil
		}
		return err
	}
	fmt.Println("Logged in.")

	if err := a.cart.Reconcile(ctx); err != nil {
		a.log.Warn(ctx, "post-login cart reconcile failed", "err", err)
	}
	a.credit.HandleLogin(ctx)
	a.credit.HandleCartChange(ctx)

	a.emitter.Track(ctx, tracking.Event{Name: "Login"})
	return nil
}

// Register prompts for the signup form and creates an account.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	if !a.session.CheckEmailAvailable(ctx, email) {
		fmt.Println("This email is already registered.")
		return nil
	}
	firstname, err := getSimpleText(a.reader, "Enter first name", os.Stdout)
	if err != nil {
		return err
	}
	lastname, err := getSimpleText(a.reader, "Enter last name", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	_, err = a.session.Signup(ctx, session.SignupInput{
		Email:     email,
		Firstname: firstname,
		Lastname:  lastname,
		Password:  password,
	})
	if err != nil {
		var serr *session.SignupError
		if errors.As(err, &serr) {
			fmt.Println(serr.Message)
			return nil
		}
		return err
	}

	fmt.Println("Account created.")
	a.emitter.Track(ctx, tracking.Event{Name: "CompleteRegistration"})
	return nil
}

// Logout drops the session and runs the post-logout transitions: credit
// state cleared, cart replaced with a fresh guest cart.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.credit.HandleLogout()
	if err := a.cart.Reconcile(ctx); err != nil {
		a.log.Warn(ctx, "post-logout cart reconcile failed", "err", err)
	}
	fmt.Println("Logged out.")
	return nil
}
