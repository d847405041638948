// Package cli implements namecartctl, the operator tool for inspecting and
// repairing fulfillment state outside the HTTP surface.
package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"namecart/internal/fulfillment/models"
	"namecart/internal/fulfillment/service"
	"namecart/pkg/domain"
)

// Backend is the fulfillment surface the commands drive.
type Backend interface {
	Reconcile(ctx context.Context, walletAddress string) (*models.ReconcileResult, error)
	ForceReconcile(ctx context.Context, walletAddress string) (*models.ReconcileResult, error)
	Operations(ctx context.Context, walletAddress string) ([]models.DomainOperation, error)
	Sweep(ctx context.Context) (*models.SweepResult, error)
	HandleFailedMint(ctx context.Context, req service.CompensationRequest) (*models.CompensationResult, error)
}

// TokenIssuer mints wallet session tokens.
type TokenIssuer interface {
	GenerateToken(wallet domain.WalletAddress, expiresIn time.Duration) (string, error)
}

// Deps builds collaborators lazily so --help and flag errors never touch a
// backend.
type Deps struct {
	Backend func(ctx context.Context) (Backend, func(), error)
	Tokens  func() (TokenIssuer, error)
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string
	Timeout time.Duration
	deps    Deps
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand(deps Deps) *cobra.Command {
	opts := &RootOptions{deps: deps}

	cmd := &cobra.Command{
		Use:   "namecartctl",
		Short: "Inspect and repair domain fulfillment state",
		Long: `namecartctl runs fulfillment operations directly against the configured
stores and registrar. It reads the same NAMECART_* environment as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall command timeout")

	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewOperationsCommand(opts))
	cmd.AddCommand(NewFailedMintCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// withBackend runs fn with a connected backend and a bounded context.
func (o *RootOptions) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
	if o.deps.Backend == nil {
		return NewExitError(ExitCommandError, "no backend configured")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	defer cancel()

	b, closeFn, err := o.deps.Backend(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect", err)
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(ctx, b)
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
