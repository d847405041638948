package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"namecart/internal/fulfillment/service"
	"namecart/pkg/domain"
)

type ReconcileOptions struct {
	*RootOptions
	Wallet string
	Force  bool
}

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile one wallet's operations with the registrar",
		Long: `Refresh every operation stored for the wallet from the registrar, then
compensate failed registrations and transfer completed ones.

Examples:
  namecartctl reconcile --wallet 0x52908400098527886e0f7030069857d2e4169ee7
  namecartctl reconcile --wallet 0x5290... --force --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b Backend) error {
				reconcile := b.Reconcile
				if opts.Force {
					reconcile = b.ForceReconcile
				}
				res, err := reconcile(ctx, opts.Wallet)
				if err != nil {
					return WrapExitError(ExitFailure, "reconcile failed", err)
				}
				return opts.output(cmd).Success(res, func(w io.Writer) {
					if res.Skipped {
						fmt.Fprintf(w, "wallet %s reconciled recently, skipped (use --force)\n", res.Wallet)
						return
					}
					writeOperations(w, res.Operations)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Wallet, "wallet", "", "wallet address (required)")
	_ = cmd.MarkFlagRequired("wallet")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "ignore the debounce window")

	return cmd
}

func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile every wallet with unfinished operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBackend(cmd, func(ctx context.Context, b Backend) error {
				res, err := b.Sweep(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "sweep failed", err)
				}
				if err := rootOpts.output(cmd).Success(res, func(w io.Writer) {
					fmt.Fprintf(w, "reconciled %d wallets, %d failed\n", res.Wallets, res.Failures)
				}); err != nil {
					return err
				}
				if res.Failures > 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("%d wallets failed to reconcile", res.Failures))
				}
				return nil
			})
		},
	}
}

type OperationsOptions struct {
	*RootOptions
	Wallet string
}

func NewOperationsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OperationsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List stored operations for a wallet",
		Long:  "List the stored operations for a wallet without contacting the registrar.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b Backend) error {
				ops, err := b.Operations(ctx, opts.Wallet)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list operations", err)
				}
				return opts.output(cmd).Success(ops, func(w io.Writer) {
					writeOperations(w, ops)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Wallet, "wallet", "", "wallet address (required)")
	_ = cmd.MarkFlagRequired("wallet")

	return cmd
}

type FailedMintOptions struct {
	*RootOptions
	Domain           string
	OperationID      string
	PaymentReference string
	Wallet           string
}

func NewFailedMintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FailedMintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "failed-mint",
		Short: "Compensate a failed registration",
		Long: `Return the domain if it is held, refund the payment and mark the operation
handled. Running it again for the same operation is a no-op.

Examples:
  namecartctl failed-mint --domain alice --operation op-123 --payment pi_123
  namecartctl failed-mint --domain alice --operation op-123 --wallet 0x5290...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, b Backend) error {
				res, err := b.HandleFailedMint(ctx, service.CompensationRequest{
					DomainName:       opts.Domain,
					OperationID:      opts.OperationID,
					PaymentReference: opts.PaymentReference,
					WalletAddress:    opts.Wallet,
				})
				if err != nil {
					return WrapExitError(ExitFailure, "compensation failed", err)
				}
				return opts.output(cmd).Success(res, func(w io.Writer) {
					if res.Skipped {
						fmt.Fprintf(w, "skipped: %s\n", res.Reason)
						return
					}
					refund := "none"
					if res.Refund != nil {
						refund = res.Refund.ID + " (" + res.Refund.Status + ")"
					}
					fmt.Fprintf(w, "status: %s\ndomain returned: %t\nrefund: %s\n", res.Status, res.DomainReturned, refund)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "domain name (required)")
	_ = cmd.MarkFlagRequired("domain")
	cmd.Flags().StringVar(&opts.OperationID, "operation", "", "failed registration operation id (required)")
	_ = cmd.MarkFlagRequired("operation")
	cmd.Flags().StringVar(&opts.PaymentReference, "payment", "", "payment reference to refund")
	cmd.Flags().StringVar(&opts.Wallet, "wallet", "", "owning wallet, needed when no record exists")

	return cmd
}

type TokenOptions struct {
	*RootOptions
	Wallet string
	TTL    time.Duration
}

// NewTokenCommand mints a wallet session token for local testing against a
// server that has JWT_SIGNING_KEY set.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a wallet session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.deps.Tokens == nil {
				return NewExitError(ExitCommandError, "no token issuer configured")
			}
			wallet, err := domain.ParseWalletAddress(opts.Wallet)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid wallet", err)
			}
			issuer, err := opts.deps.Tokens()
			if err != nil {
				return WrapExitError(ExitCommandError, "token issuer unavailable", err)
			}
			token, err := issuer.GenerateToken(wallet, opts.TTL)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to sign token", err)
			}
			return opts.output(cmd).Success(map[string]string{"wallet": wallet.String(), "token": token}, func(w io.Writer) {
				fmt.Fprintln(w, strings.TrimSpace(token))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Wallet, "wallet", "", "wallet address (required)")
	_ = cmd.MarkFlagRequired("wallet")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")

	return cmd
}
