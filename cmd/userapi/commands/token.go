package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hmcts/vh-user-api-duplicate/internal/api/auth"
	"github.com/hmcts/vh-user-api-duplicate/pkg/config"
)

var tokenDuration time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <service-name>",
	Short: "Mint an API token for a calling service",
	Long: `Mint a signed JWT a calling service can use against the API.

The token is signed with the configured JWT secret, so it must be generated
with the same configuration the server runs with.

Examples:
  # Token with the configured default lifetime
  userapi token hearings-service

  # Short-lived token for manual testing
  userapi token curl --duration 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenDuration, "duration", 0, "Token lifetime (default: configured jwt_expiry)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	duration := tokenDuration
	if duration == 0 {
		duration = cfg.API.JWTExpiry
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:        cfg.API.JWTSecret,
		Issuer:        "userapi",
		TokenDuration: duration,
	})
	if err != nil {
		return err
	}

	token, err := jwtService.GenerateToken(args[0])
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println(token)
	return nil
}
