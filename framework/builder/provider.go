package builder

import (
	"context"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/errors"
)

// ── Provider interface ────────────────────────────────────────────────────────

// Provider groups builder registrations.
//
// Register runs once, when the provider is added, and must only add classes,
// parameters and dependencies. Boot runs after every Build, against the built
// container, so it may resolve anything. A Boot error fails the build.
//
//	type MailProvider struct{ builder.BaseProvider }
//
//	func (p *MailProvider) Register(b *builder.Builder) error {
//	    _, err := b.AddType(Mailer{})
//	    b.When("main.Mailer").Needs("host").Give("smtp.local")
//	    return err
//	}
//
//	func (p *MailProvider) Boot(ctx context.Context, c *container.Container) error {
//	    m, err := container.Resolve[*Mailer](c, "main.Mailer")
//	    if err != nil {
//	        return err
//	    }
//	    return m.Dial(ctx)
//	}
type Provider interface {
	Register(b *Builder) error
	Boot(ctx context.Context, c *container.Container) error

	// Provides lists the identifiers the provider is responsible for. It is
	// informational and shown by inspectors.
	Provides() []string
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op implementation of Boot and Provides.
//
//	type MyProvider struct{ builder.BaseProvider }
//	func (p *MyProvider) Register(b *builder.Builder) error { ... }
type BaseProvider struct{}

func (BaseProvider) Boot(context.Context, *container.Container) error { return nil }
func (BaseProvider) Provides() []string                               { return nil }

// ── Registration ──────────────────────────────────────────────────────────────

// AddProvider registers p. Adding the same provider twice is a no-op.
func (b *Builder) AddProvider(p Provider) error {
	b.mu.Lock()
	for _, existing := range b.providers {
		if existing == p {
			b.mu.Unlock()
			return nil
		}
	}
	b.mu.Unlock()

	if err := p.Register(b); err != nil {
		return errors.Wrapf(err, "register %T", p)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = append(b.providers, p)
	return nil
}

// Providers returns the registered providers in order.
func (b *Builder) Providers() []Provider {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Provider(nil), b.providers...)
}
