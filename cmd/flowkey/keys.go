package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/layer-3/flowkey"
	"github.com/layer-3/flowkey/adapters/verifier"
)

// keyEnv is read when --key is not given
const keyEnv = "FLOWKEY_KEY"

func newKeygenCmd() *cobra.Command {
	var scheme string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a wallet keypair for testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := flowkey.GenerateSigner(scheme)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nsecret:  %s\n", signer.Address(), signer.Secret())
			return nil
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", verifier.SchemeSolana, "signature scheme (solana or evm)")

	return cmd
}

func newSignCmd() *cobra.Command {
	var scheme, key, message string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a challenge nonce with a wallet secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := loadSigner(scheme, key)
			if err != nil {
				return err
			}
			sig, err := signer.SignMessage(message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", verifier.SchemeSolana, "signature scheme (solana or evm)")
	cmd.Flags().StringVar(&key, "key", "", "wallet secret, defaults to $"+keyEnv)
	cmd.Flags().StringVarP(&message, "message", "m", "", "message to sign")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var scheme, key, url string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Run the challenge flow against a server and print the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := loadSigner(scheme, key)
			if err != nil {
				return err
			}
			return login(cmd.Context(), cmd.OutOrStdout(), flowkey.NewClient(url, signer))
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", verifier.SchemeSolana, "signature scheme (solana or evm)")
	cmd.Flags().StringVar(&key, "key", "", "wallet secret, defaults to $"+keyEnv)
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/api", "API base url")

	return cmd
}

func login(ctx context.Context, w io.Writer, client *flowkey.Client) error {
	token, err := client.Login(ctx)
	if err != nil {
		return err
	}
	profile, err := client.Me(ctx)
	if err != nil {
		return err
	}

	out := struct {
		Token   string      `json:"token"`
		Profile interface{} `json:"profile"`
	}{token, profile}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func loadSigner(scheme, key string) (flowkey.KeySigner, error) {
	if key == "" {
		key = os.Getenv(keyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("a wallet secret is required (--key or $%s)", keyEnv)
	}
	return flowkey.LoadSigner(scheme, key)
}
