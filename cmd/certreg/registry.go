// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/blinklabs-io/certreg/api"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/internal/config"
	"github.com/blinklabs-io/certreg/internal/node"
	"github.com/blinklabs-io/certreg/registry"
	"github.com/spf13/cobra"
)

// withRegistry opens the configured database, runs fn against the registry
// and prints its result as JSON. The database must not be in use by a
// running server.
func withRegistry(
	cmd *cobra.Command,
	fn func(context.Context, *config.Config, *registry.Registry) (any, error),
) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errNoConfig
	}
	logger := commonRun(os.Stderr)
	n, err := node.NewNode(cfg, logger)
	if err != nil {
		return err
	}
	if err := n.Open(); err != nil {
		_ = n.Stop()
		return err
	}
	result, err := fn(cmd.Context(), cfg, n.Registry())
	err = errors.Join(err, n.Stop())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// callerFlag registers the --as flag naming the acting identity
func callerFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVar(dest, "as", "", "identity performing the operation (hex or bech32)")
	_ = cmd.MarkFlagRequired("as")
}

func parseCertificateId(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid certificate id %q", arg)
	}
	return id, nil
}

func initCommand() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the registry with the caller as platform authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				id, err := identity.Parse(caller)
				if err != nil {
					return nil, err
				}
				return reg.Initialize(ctx, id)
			})
		},
	}
	callerFlag(cmd, &caller)
	return cmd
}

func settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage platform settings",
	}
	var caller string
	feeCmd := &cobra.Command{
		Use:   "fee <amount>",
		Short: "Update the platform fee charged per transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fee, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fee %q", args[0])
			}
			return withRegistry(cmd, func(ctx context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				id, err := identity.Parse(caller)
				if err != nil {
					return nil, err
				}
				return reg.UpdatePlatformSettings(ctx, id, fee)
			})
		},
	}
	callerFlag(feeCmd, &caller)
	cmd.AddCommand(feeCmd)
	return cmd
}

func certCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Create, verify, transfer and inspect certificates",
	}
	cmd.AddCommand(
		certCreateCommand(),
		certVerifyCommand(),
		certTransferCommand(),
		certShowCommand(),
		certListCommand(),
		certReceiptsCommand(),
		certReportCommand(),
	)
	return cmd
}

func certCreateCommand() *cobra.Command {
	var caller string
	var req registry.CreateCertificateRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new certificate owned by the caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				id, err := identity.Parse(caller)
				if err != nil {
					return nil, err
				}
				return reg.CreateCertificate(ctx, id, req)
			})
		},
	}
	callerFlag(cmd, &caller)
	cmd.Flags().StringVar(&req.Title, "title", "", "certificate title")
	cmd.Flags().StringVar(&req.Description, "description", "", "certificate description")
	cmd.Flags().StringVar(&req.IpfsUri, "ipfs-uri", "", "IPFS URI of the certificate document")
	cmd.Flags().StringVar(&req.IssuerName, "issuer", "", "issuer name")
	cmd.Flags().StringVar(&req.RecipientName, "recipient", "", "recipient name")
	for _, name := range []string{"title", "ipfs-uri", "issuer", "recipient"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func certVerifyCommand() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Mark a certificate as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certId, err := parseCertificateId(args[0])
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(ctx context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				id, err := identity.Parse(caller)
				if err != nil {
					return nil, err
				}
				return reg.VerifyCertificate(ctx, id, certId)
			})
		},
	}
	callerFlag(cmd, &caller)
	return cmd
}

func certTransferCommand() *cobra.Command {
	var caller, newOwner, platformAccount string
	cmd := &cobra.Command{
		Use:   "transfer <id>",
		Short: "Transfer a certificate, paying the platform fee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certId, err := parseCertificateId(args[0])
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(ctx context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				from, err := identity.Parse(caller)
				if err != nil {
					return nil, err
				}
				to, err := identity.Parse(newOwner)
				if err != nil {
					return nil, fmt.Errorf("new owner: %w", err)
				}
				req := registry.TransferCertificateRequest{
					CertificateId: certId,
					NewOwner:      to,
				}
				if platformAccount != "" {
					if req.PlatformAccount, err = identity.Parse(platformAccount); err != nil {
						return nil, fmt.Errorf("platform account: %w", err)
					}
				} else {
					state, err := reg.State()
					if err != nil {
						return nil, err
					}
					req.PlatformAccount = state.PlatformAuthority
				}
				return reg.TransferCertificate(ctx, from, req)
			})
		},
	}
	callerFlag(cmd, &caller)
	cmd.Flags().StringVar(&newOwner, "to", "", "identity of the new owner")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&platformAccount, "platform-account", "", "account receiving the fee (defaults to the platform authority)")
	return cmd
}

func certShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certId, err := parseCertificateId(args[0])
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(_ context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				return reg.Certificate(certId)
			})
		},
	}
}

func certListCommand() *cobra.Command {
	var owner, creator, verified, active string
	filter := registry.CertificateFilter{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List certificates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if filter.Owner, err = optionalIdentity("owner", owner); err != nil {
				return err
			}
			if filter.Creator, err = optionalIdentity("creator", creator); err != nil {
				return err
			}
			if filter.Verified, err = optionalBool("verified", verified); err != nil {
				return err
			}
			if filter.Active, err = optionalBool("active", active); err != nil {
				return err
			}
			return withRegistry(cmd, func(_ context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				return reg.ListCertificates(filter)
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "only certificates held by this identity")
	cmd.Flags().StringVar(&creator, "creator", "", "only certificates issued by this identity")
	cmd.Flags().StringVar(&filter.IssuerName, "issuer", "", "issuer name substring")
	cmd.Flags().StringVar(&verified, "verified", "", "filter on verification status (true/false)")
	cmd.Flags().StringVar(&active, "active", "", "filter on active status (true/false)")
	cmd.Flags().IntVar(&filter.Count, "count", api.DefaultPaginationCount, "page size")
	cmd.Flags().IntVar(&filter.Page, "page", api.DefaultPaginationPage, "page number")
	cmd.Flags().BoolVar(&filter.Descending, "desc", false, "newest first")
	return cmd
}

func optionalIdentity(name, value string) (*identity.Identity, error) {
	if value == "" {
		return nil, nil
	}
	id, err := identity.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &id, nil
}

func optionalBool(name, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, value)
	}
	return &b, nil
}

func certReceiptsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "receipts <id>",
		Short: "Show the transfer receipts of a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certId, err := parseCertificateId(args[0])
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(_ context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				return reg.Receipts(certId)
			})
		},
	}
}

func certReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <id>",
		Short: "Verify a certificate's ownership chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certId, err := parseCertificateId(args[0])
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(_ context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				return reg.VerificationReport(certId)
			})
		},
	}
}

func accountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect and fund native currency accounts",
	}
	balanceCmd := &cobra.Command{
		Use:   "balance <identity>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity.Parse(args[0])
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(_ context.Context, _ *config.Config, reg *registry.Registry) (any, error) {
				balance, err := reg.Balance(id)
				if err != nil {
					return nil, err
				}
				return api.BalanceResponse{Account: id, Balance: balance}, nil
			})
		},
	}
	fundCmd := &cobra.Command{
		Use:   "fund <identity> <amount>",
		Short: "Credit an account (dev run mode only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity.Parse(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			return withRegistry(cmd, func(_ context.Context, cfg *config.Config, reg *registry.Registry) (any, error) {
				if !cfg.RunMode.IsDevMode() {
					return nil, errors.New("account funding requires runMode dev")
				}
				balance, err := reg.Fund(id, amount)
				if err != nil {
					return nil, err
				}
				return api.BalanceResponse{Account: id, Balance: balance}, nil
			})
		},
	}
	cmd.AddCommand(balanceCmd, fundCmd)
	return cmd
}

func tokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Issue an API bearer token for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errNoConfig
			}
			id, err := identity.Parse(args[0])
			if err != nil {
				return err
			}
			secret, err := cfg.JwtSecretBytes()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				if ttl, err = cfg.TokenTtlDuration(); err != nil {
					return err
				}
			}
			token, err := api.NewToken(secret, id, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, 0 for no expiry (defaults to tokenTtl)")
	return cmd
}
