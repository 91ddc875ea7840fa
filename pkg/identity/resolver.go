package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/sanitizer"
)

// ResolutionKind discriminates the three possible resolver outcomes.
type ResolutionKind string

const (
	// KindAuthenticated means the assertion resolved to an account.
	KindAuthenticated ResolutionKind = "authenticated"

	// KindNeedsEmail means a signup is pending until the user supplies
	// an email address.
	KindNeedsEmail ResolutionKind = "needs_email"

	// KindConflict means the resolver refused; Reason explains why.
	KindConflict ResolutionKind = "conflict"
)

// Resolution is the resolver's verdict. Exactly one outcome applies:
// Account/IsNew for KindAuthenticated, Pending for KindNeedsEmail,
// Reason for KindConflict.
type Resolution struct {
	Kind    ResolutionKind
	Account Account
	IsNew   bool
	Pending PendingProfile
	Reason  ConflictReason
}

func authenticated(account Account, isNew bool) Resolution {
	return Resolution{Kind: KindAuthenticated, Account: account, IsNew: isNew}
}

func needsEmail(pending PendingProfile) Resolution {
	return Resolution{Kind: KindNeedsEmail, Pending: pending}
}

func conflict(reason ConflictReason) Resolution {
	return Resolution{Kind: KindConflict, Reason: reason}
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger. Defaults to a no-op logger.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// Resolver maps a verified identity assertion plus a declared intent
// to an account decision. It holds no state of its own: concurrent
// races on account creation and binding attachment are settled by the
// store's uniqueness constraints, whose violations the resolver maps
// back to deterministic outcomes.
type Resolver struct {
	store Store
	log   *slog.Logger
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store: store,
		log:   logger.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve decides what the assertion means under the given intent.
// current must be non-nil for IntentLink and is ignored otherwise.
//
// The returned error is reserved for store and infrastructure
// failures; every policy outcome, including refusals, is expressed
// through the Resolution.
func (r *Resolver) Resolve(ctx context.Context, assertion Assertion, intent Intent, current *Account) (Resolution, error) {
	if assertion.Provider == "" || assertion.ExternalID == "" {
		return Resolution{}, ErrInvalidAssertion
	}
	if intent == IntentLink && current == nil {
		return Resolution{}, ErrNoCurrentAccount
	}
	assertion.Email = sanitizer.NormalizeEmail(assertion.Email)

	// Step 1: the binding is the strongest signal.
	bound, err := r.store.AccountByBinding(ctx, assertion.Provider, assertion.ExternalID)
	switch {
	case err == nil:
		return r.resolveBound(bound, intent, current)
	case !errors.Is(err, ErrAccountNotFound):
		return Resolution{}, fmt.Errorf("lookup binding: %w", err)
	}

	// Step 2: without an email only a signup can continue, and only by
	// deferring to the user. Binding an email-less identity is refused:
	// there is nothing to verify ownership against.
	if assertion.Email == "" {
		if intent == IntentSignup {
			return needsEmail(PendingProfile{
				Provider:   assertion.Provider,
				ExternalID: assertion.ExternalID,
				Nickname:   assertion.Nickname,
				AvatarURL:  assertion.AvatarURL,
			}), nil
		}
		return conflict(ReasonAccountNotFoundNoEmail), nil
	}

	if intent == IntentLink {
		return r.link(ctx, assertion, *current)
	}

	owner, err := r.store.AccountByEmail(ctx, assertion.Email)
	switch {
	case err == nil:
		return r.attach(ctx, assertion, intent, owner)
	case !errors.Is(err, ErrAccountNotFound):
		return Resolution{}, fmt.Errorf("lookup email: %w", err)
	}

	// Step 3: nothing matched.
	if intent == IntentLogin {
		return conflict(ReasonAccountNotFound), nil
	}
	return r.signup(ctx, assertion)
}

// resolveBound handles an assertion whose binding already resolves to
// an account.
func (r *Resolver) resolveBound(bound Account, intent Intent, current *Account) (Resolution, error) {
	if intent != IntentLink {
		return authenticated(bound, false), nil
	}
	if bound.ID == current.ID {
		// Linking an identity that is already ours is a no-op.
		return authenticated(bound, false), nil
	}
	return conflict(ReasonSocialAlreadyLinked), nil
}

// link attaches a new binding to the current account.
func (r *Resolver) link(ctx context.Context, assertion Assertion, current Account) (Resolution, error) {
	if assertion.Email != "" && assertion.Email != current.Email {
		owner, err := r.store.AccountByEmail(ctx, assertion.Email)
		switch {
		case err == nil && owner.ID != current.ID:
			return conflict(ReasonEmailAlreadyExists), nil
		case err != nil && !errors.Is(err, ErrAccountNotFound):
			return Resolution{}, fmt.Errorf("lookup email: %w", err)
		}
	}

	binding := bindingFromAssertion(assertion)
	if err := r.store.AddBinding(ctx, current.ID, binding); err != nil {
		if errors.Is(err, ErrBindingTaken) {
			// Lost the race: someone bound this identity first.
			return r.rebind(ctx, assertion, &current)
		}
		return Resolution{}, fmt.Errorf("add binding: %w", err)
	}

	r.log.InfoContext(ctx, "identity linked",
		logger.AccountID(current.ID),
		logger.Provider(assertion.Provider))

	current.Bindings = append(current.Bindings, binding)
	return authenticated(current, false), nil
}

// attach decides whether an email-matched account may absorb the
// asserted identity automatically.
func (r *Resolver) attach(ctx context.Context, assertion Assertion, intent Intent, owner Account) (Resolution, error) {
	// A signup against a taken email never merges into the owner.
	if intent == IntentSignup {
		return conflict(ReasonEmailAlreadyExists), nil
	}
	// Password-holding accounts never auto-attach: the caller has not
	// proven they control the password.
	if owner.HasPassword() {
		return conflict(ReasonNeedsManualLink), nil
	}
	// Same provider, different external id: a second identity at the
	// same provider sharing the email is suspicious, never automatic.
	if _, exists := owner.BindingFor(assertion.Provider); exists {
		return conflict(ReasonNeedsManualLink), nil
	}

	binding := bindingFromAssertion(assertion)
	if err := r.store.AddBinding(ctx, owner.ID, binding); err != nil {
		if errors.Is(err, ErrBindingTaken) {
			return r.rebind(ctx, assertion, nil)
		}
		return Resolution{}, fmt.Errorf("add binding: %w", err)
	}

	r.log.InfoContext(ctx, "identity auto-attached",
		logger.AccountID(owner.ID),
		logger.Provider(assertion.Provider))

	owner.Bindings = append(owner.Bindings, binding)
	return authenticated(owner, false), nil
}

// signup creates a fresh account carrying the assertion's email and
// profile, bound to the asserted identity.
func (r *Resolver) signup(ctx context.Context, assertion Assertion) (Resolution, error) {
	verified := true
	if assertion.EmailVerified != nil {
		verified = *assertion.EmailVerified
	}

	account := Account{
		ID:            uuid.New(),
		Email:         assertion.Email,
		Nickname:      assertion.Nickname,
		AvatarURL:     assertion.AvatarURL,
		Role:          RoleUser,
		EmailVerified: verified,
		Bindings:      []Binding{bindingFromAssertion(assertion)},
		CreatedAt:     time.Now().UTC(),
	}

	if err := r.store.CreateAccount(ctx, account); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			// Lost the race on the email: the winner owns it now and
			// this caller has not proven control over that account.
			return conflict(ReasonEmailAlreadyExists), nil
		case errors.Is(err, ErrBindingTaken):
			return r.rebind(ctx, assertion, nil)
		default:
			return Resolution{}, fmt.Errorf("create account: %w", err)
		}
	}

	r.log.InfoContext(ctx, "account created",
		logger.AccountID(account.ID),
		logger.Provider(assertion.Provider),
		slog.String("email", sanitizer.MaskEmail(account.Email)))

	return authenticated(account, true), nil
}

// rebind resolves a lost binding-uniqueness race by re-reading the
// winner. When expected is non-nil the caller was linking; the outcome
// is only a success if the winner turns out to be that same account.
func (r *Resolver) rebind(ctx context.Context, assertion Assertion, expected *Account) (Resolution, error) {
	winner, err := r.store.AccountByBinding(ctx, assertion.Provider, assertion.ExternalID)
	if err != nil {
		return Resolution{}, fmt.Errorf("relookup binding: %w", err)
	}
	if expected != nil && winner.ID != expected.ID {
		return conflict(ReasonSocialAlreadyLinked), nil
	}
	return authenticated(winner, false), nil
}

func bindingFromAssertion(assertion Assertion) Binding {
	return Binding{
		Provider:              assertion.Provider,
		ExternalID:            assertion.ExternalID,
		ProviderEmail:         assertion.Email,
		ProviderEmailVerified: assertion.EmailVerified != nil && *assertion.EmailVerified,
		CreatedAt:             time.Now().UTC(),
	}
}
