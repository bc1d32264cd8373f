// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-companion-auth.
//
// go-companion-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "companion-auth",
	Short: "Authentication service for the learning companion",
	Long: `companion-auth runs the authentication service for the learning
companion. Parents sign in with passkeys (WebAuthn), children sign in
with a four digit PIN under their parent's account, and sessions are
maintained with rotating refresh tokens.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/companion-auth/config.yaml",
		"path to configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hashPinCmd)
	rootCmd.AddCommand(versionCmd)
}
