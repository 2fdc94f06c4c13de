package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glorpus-work/ritani-feeds/internal/logger"
	"github.com/glorpus-work/ritani-feeds/pkg/auth"
	pkgerrors "github.com/glorpus-work/ritani-feeds/pkg/errors"
)

const (
	// MaxAttempts is how many id/key pairs are tried before giving up.
	MaxAttempts = 3
	// maxAnswerTries is how often a single question is repeated on a blank answer.
	maxAnswerTries = 3
)

// Prompts shown to the user.
const (
	VendorIDPrompt = "Enter your ritani vendor id: "
	APIKeyPrompt   = "Enter your api key: "
)

// SavePolicy decides what happens to credentials once they verify.
type SavePolicy int

const (
	// SaveAsk asks the user whether to store them.
	SaveAsk SavePolicy = iota
	// SaveAlways stores them without asking.
	SaveAlways
)

// Acquirer resolves the credentials for one run.
type Acquirer struct {
	store    *Store
	prompter Prompter
	verifier *Verifier
}

// NewAcquirer wires a store, a prompter and a verifier together.
func NewAcquirer(store *Store, prompter Prompter, verifier *Verifier) *Acquirer {
	return &Acquirer{store: store, prompter: prompter, verifier: verifier}
}

// Acquire returns ID/API_KEY from the environment, after loading the env file,
// without checking them. If either is missing it falls back to Login.
func (a *Acquirer) Acquire(ctx context.Context) (auth.Credentials, error) {
	if err := a.store.Load(); err != nil {
		logger.Warn("ignoring env file", logger.Fields{"path": a.store.Path(), "error": err.Error()})
	}
	if creds, ok := FromEnv(); ok {
		logger.Debug("using stored credentials", logger.Fields{"vendor_id": creds.VendorID})
		return creds, nil
	}
	return a.Login(ctx, SaveAsk)
}

// Login asks for an id and key up to MaxAttempts times and returns the first
// pair the API accepts. Blank answers end the loop early. When no pair
// verifies the result is ErrAuthenticationFailed.
func (a *Acquirer) Login(ctx context.Context, policy SavePolicy) (auth.Credentials, error) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		id, err := a.answer(ctx, VendorIDPrompt, false)
		if errors.Is(err, pkgerrors.ErrNoAnswer) {
			break
		}
		if err != nil {
			return auth.Credentials{}, err
		}
		key, err := a.answer(ctx, APIKeyPrompt, true)
		if errors.Is(err, pkgerrors.ErrNoAnswer) {
			break
		}
		if err != nil {
			return auth.Credentials{}, err
		}

		creds := auth.Credentials{VendorID: id, APIKey: key}
		if err := a.verifier.Verify(ctx, creds); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return auth.Credentials{}, ctxErr
			}
			logger.Warn("invalid id or key, please try again", logger.Fields{
				"attempt": attempt,
				"error":   err.Error(),
			})
			continue
		}

		if err := a.persist(ctx, creds, policy); err != nil {
			return creds, err
		}
		return creds, nil
	}
	return auth.Credentials{}, pkgerrors.ErrAuthenticationFailed
}

// answer repeats question until it gets a non-blank answer.
func (a *Acquirer) answer(ctx context.Context, question string, secret bool) (string, error) {
	for try := 0; try < maxAnswerTries; try++ {
		var (
			raw string
			err error
		)
		if secret {
			raw, err = a.prompter.AskSecret(ctx, question)
		} else {
			raw, err = a.prompter.Ask(ctx, question)
		}
		if err != nil {
			return "", err
		}
		if value := strings.TrimSpace(raw); value != "" {
			return value, nil
		}
		logger.Warn("invalid answer")
	}
	return "", pkgerrors.ErrNoAnswer
}

// persist stores verified credentials according to policy. With SaveAsk a
// failed save is only logged: the credentials are still good for this run.
func (a *Acquirer) persist(ctx context.Context, creds auth.Credentials, policy SavePolicy) error {
	if policy == SaveAlways {
		return a.save(creds)
	}

	reply, err := a.prompter.Ask(ctx, fmt.Sprintf("Do you want to save id and key in %s? (n/y): ", a.store.Path()))
	if err != nil {
		logger.Debug("save question not answered", logger.Fields{"error": err.Error()})
		return nil
	}
	reply = strings.ToLower(strings.TrimSpace(reply))
	if !strings.HasPrefix(reply, "y") {
		return nil
	}
	if err := a.save(creds); err != nil {
		logger.Warn("credentials not saved", logger.Fields{"error": err.Error()})
	}
	return nil
}

func (a *Acquirer) save(creds auth.Credentials) error {
	if err := a.store.Save(creds); err != nil {
		return err
	}
	logger.Info("credentials saved", logger.Fields{"path": a.store.Path()})
	return nil
}
