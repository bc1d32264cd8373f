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
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// hashPinCmd hashes a child PIN for seeding accounts out of band
var hashPinCmd = &cobra.Command{
	Use:   "hash-pin <pin>",
	Short: "Hash a child PIN",
	Long: `Hash a four digit child PIN with bcrypt. The hash is printed to
stdout and can be used to seed child accounts out of band.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pin := args[0]
		if !pinPattern.MatchString(pin) {
			return fmt.Errorf("pin must be exactly four digits")
		}

		hash, err := principal.HashPIN(pin)
		if err != nil {
			return fmt.Errorf("failed to hash pin: %w", err)
		}

		fmt.Println(string(hash))
		return nil
	},
}
